package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/ttapp-api/internal/models"
	"github.com/noah-isme/ttapp-api/pkg/config"
	appErrors "github.com/noah-isme/ttapp-api/pkg/errors"
	"github.com/noah-isme/ttapp-api/pkg/export"
)

// Export formats accepted by the export endpoints.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ExportFile is a rendered download.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders timetable views as downloadable CSV or PDF files.
type ExportService struct {
	timetables *TimetableService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	cfg        config.ExportConfig
	logger     *zap.Logger
}

// NewExportService wires export dependencies.
func NewExportService(timetables *TimetableService, cfg config.ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		timetables: timetables,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		cfg:        cfg,
		logger:     logger,
	}
}

// ExportClassTimetable renders a class's weekly grid.
func (s *ExportService) ExportClassTimetable(ctx context.Context, classID, format string) (*ExportFile, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	timetable, err := s.timetables.ClassTimetable(ctx, classID)
	if err != nil {
		return nil, err
	}

	headers := make([]string, 0, models.PeriodsPerDay+1)
	headers = append(headers, "Day")
	for period := 1; period <= models.PeriodsPerDay; period++ {
		headers = append(headers, "Period "+strconv.Itoa(period))
	}

	rows := make([][]string, 0, len(timetable.Days))
	for _, day := range timetable.Days {
		row := make([]string, models.PeriodsPerDay+1)
		row[0] = day.DayName
		for _, cell := range day.Periods {
			if cell.Period < 1 || cell.Period > models.PeriodsPerDay {
				continue
			}
			value := cell.SubjectName
			if cell.TeacherName != "" {
				value = fmt.Sprintf("%s (%s)", cell.SubjectName, cell.TeacherName)
			}
			row[cell.Period] = value
		}
		rows = append(rows, row)
	}

	table := export.Table{Headers: headers, Rows: rows}
	title := s.title(fmt.Sprintf("Class %s", timetable.Class.Name))
	return s.render(table, title, "class-"+slugify(timetable.Class.Name), format)
}

// ExportTeacherTimetable renders a teacher's periods for a date.
func (s *ExportService) ExportTeacherTimetable(ctx context.Context, teacherID, rawDate, format string) (*ExportFile, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	timetable, err := s.timetables.TeacherTimetable(ctx, teacherID, rawDate)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(timetable.Timetable))
	for _, entry := range timetable.Timetable {
		rows = append(rows, []string{strconv.Itoa(entry.Period), entry.ClassName, entry.SubjectName})
	}

	table := export.Table{Headers: []string{"Period", "Class", "Subject"}, Rows: rows}
	title := s.title(fmt.Sprintf("%s on %s (%s)", timetable.Teacher.Name, timetable.Date, timetable.DayName))
	return s.render(table, title, "teacher-"+slugify(timetable.Teacher.Name)+"-"+timetable.Date, format)
}

func (s *ExportService) render(table export.Table, title, baseName, format string) (*ExportFile, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{FileName: baseName + ".csv", ContentType: "text/csv", Content: content}, nil
	case FormatPDF:
		content, err := s.pdf.Render(table, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{FileName: baseName + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ExportService) title(suffix string) string {
	base := s.cfg.Title
	if base == "" {
		base = "Weekly Timetable"
	}
	return base + " - " + suffix
}

func slugify(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "timetable"
	}
	return b.String()
}
