package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/ttapp-api/api/swagger"
	"github.com/noah-isme/ttapp-api/internal/handler"
	"github.com/noah-isme/ttapp-api/internal/middleware"
	"github.com/noah-isme/ttapp-api/internal/models"
	"github.com/noah-isme/ttapp-api/internal/repository"
	"github.com/noah-isme/ttapp-api/internal/service"
	"github.com/noah-isme/ttapp-api/pkg/cache"
	"github.com/noah-isme/ttapp-api/pkg/config"
	"github.com/noah-isme/ttapp-api/pkg/database"
	"github.com/noah-isme/ttapp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ttapp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ttapp-api/pkg/middleware/requestid"
)

// @title TTApp API
// @version 1.0.0
// @description School timetable generation and substitute recommendation service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	// The timetable cache is best effort: a missing Redis downgrades to
	// uncached reads instead of blocking startup.
	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, timetable cache disabled")
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)

	tokenSvc := service.NewTokenService(cfg.JWT)
	teacherSvc := service.NewTeacherService(teacherRepo, subjectRepo, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	classSvc := service.NewClassService(classRepo, teacherRepo, nil, logr)
	generatorSvc := service.NewScheduleGeneratorService(
		teacherRepo, classRepo, subjectRepo, scheduleRepo, db,
		service.NewTeacherPicker(cfg.Scheduler), cacheSvc, metricsSvc, logr,
	)
	timetableSvc := service.NewTimetableService(teacherRepo, classRepo, scheduleRepo, cacheSvc, logr)
	substitutionSvc := service.NewSubstitutionService(teacherRepo, scheduleRepo, absenceRepo, nil, logr)
	exportSvc := service.NewExportService(timetableSvc, cfg.Export, logr)

	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	classHandler := handler.NewClassHandler(classSvc)
	scheduleHandler := handler.NewScheduleHandler(generatorSvc, timetableSvc)
	absenceHandler := handler.NewAbsenceHandler(substitutionSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	statusHandler := handler.NewStatusHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	admin := middleware.RequireRoles(models.RoleAdmin)

	teachers := api.Group("/teachers")
	{
		teachers.GET("", staff, teacherHandler.List)
		teachers.GET("/:id", staff, teacherHandler.Get)
		teachers.POST("", admin, teacherHandler.Create)
		teachers.PUT("/:id", admin, teacherHandler.Update)
		teachers.DELETE("/:id", admin, teacherHandler.Delete)
		teachers.GET("/:id/timetable", staff, scheduleHandler.TeacherTimetable)
		teachers.GET("/:id/timetable/export", staff, exportHandler.TeacherTimetable)
		teachers.GET("/:id/substitutes", staff, absenceHandler.Suggest)
	}

	subjects := api.Group("/subjects")
	{
		subjects.GET("", staff, subjectHandler.List)
		subjects.GET("/:id", staff, subjectHandler.Get)
		subjects.POST("", admin, subjectHandler.Create)
		subjects.PUT("/:id", admin, subjectHandler.Update)
		subjects.DELETE("/:id", admin, subjectHandler.Delete)
	}

	classes := api.Group("/classes")
	{
		classes.GET("", staff, classHandler.List)
		classes.GET("/:id", staff, classHandler.Get)
		classes.POST("", admin, classHandler.Create)
		classes.PUT("/:id", admin, classHandler.Update)
		classes.DELETE("/:id", admin, classHandler.Delete)
		classes.GET("/:id/timetable", staff, scheduleHandler.ClassTimetable)
		classes.GET("/:id/timetable/export", staff, exportHandler.ClassTimetable)
	}

	api.POST("/schedules/generate", admin, scheduleHandler.Generate)

	absences := api.Group("/absences")
	{
		absences.GET("", staff, absenceHandler.Board)
		absences.POST("", staff, absenceHandler.MarkAbsent)
		absences.PUT("/:id/substitute", staff, absenceHandler.Confirm)
	}

	api.GET("/system/metrics", admin, statusHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
