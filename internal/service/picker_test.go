package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/ttapp-api/internal/models"
	"github.com/noah-isme/ttapp-api/pkg/config"
)

func TestFirstFitPickerIsDeterministic(t *testing.T) {
	picker := NewTeacherPicker(config.SchedulerConfig{Strategy: config.StrategyFirstFit})
	candidates := []models.Teacher{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	for i := 0; i < 10; i++ {
		assert.Equal(t, "a", picker.Pick(candidates).ID)
	}
}

func TestRandomPickerIsSeedReproducible(t *testing.T) {
	candidates := []models.Teacher{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	first := NewTeacherPicker(config.SchedulerConfig{Strategy: config.StrategyRandom, Seed: 42})
	second := NewTeacherPicker(config.SchedulerConfig{Strategy: config.StrategyRandom, Seed: 42})

	for i := 0; i < 20; i++ {
		assert.Equal(t, first.Pick(candidates).ID, second.Pick(candidates).ID)
	}
}

func TestRandomPickerStaysWithinCandidates(t *testing.T) {
	picker := NewTeacherPicker(config.SchedulerConfig{Strategy: config.StrategyRandom, Seed: 7})
	candidates := []models.Teacher{{ID: "a"}, {ID: "b"}}

	for i := 0; i < 20; i++ {
		id := picker.Pick(candidates).ID
		assert.Contains(t, []string{"a", "b"}, id)
	}
}
