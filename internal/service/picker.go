package service

import (
	"math/rand"
	"time"

	"github.com/noah-isme/ttapp-api/internal/models"
	"github.com/noah-isme/ttapp-api/pkg/config"
)

// TeacherPicker selects one teacher from an eligible-and-free candidate
// list. Candidates arrive in stable enumeration order (name, then id).
type TeacherPicker interface {
	Pick(candidates []models.Teacher) models.Teacher
}

// firstFitPicker takes the first candidate. Deterministic, so repeated
// generation runs over identical data produce identical timetables.
type firstFitPicker struct{}

func (firstFitPicker) Pick(candidates []models.Teacher) models.Teacher {
	return candidates[0]
}

// randomPicker preserves the legacy load-spreading behaviour as an explicit,
// seedable strategy instead of implicit global randomness.
type randomPicker struct {
	rng *rand.Rand
}

func (p *randomPicker) Pick(candidates []models.Teacher) models.Teacher {
	return candidates[p.rng.Intn(len(candidates))]
}

// NewTeacherPicker builds the picker selected by configuration.
func NewTeacherPicker(cfg config.SchedulerConfig) TeacherPicker {
	if cfg.Strategy == config.StrategyRandom {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return &randomPicker{rng: rand.New(rand.NewSource(seed))}
	}
	return firstFitPicker{}
}
