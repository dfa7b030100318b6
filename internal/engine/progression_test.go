package engine_test

import (
	"testing"

	"humanping/internal/domain"
	"humanping/internal/engine"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		completed int
		want      domain.Difficulty
	}{
		{0, domain.DifficultyEasy},
		{1, domain.DifficultyEasy},
		{6, domain.DifficultyEasy},
		{7, domain.DifficultyMedium},
		{10, domain.DifficultyMedium},
		{19, domain.DifficultyMedium},
		{20, domain.DifficultyHard},
		{25, domain.DifficultyHard},
		{100, domain.DifficultyHard},
	}
	for _, tc := range cases {
		if got := engine.TierFor(tc.completed); got != tc.want {
			t.Errorf("TierFor(%d) = %s, want %s", tc.completed, got, tc.want)
		}
	}
}

func TestTierForNegativeCount(t *testing.T) {
	if got := engine.TierFor(-1); got != domain.DifficultyEasy {
		t.Errorf("TierFor(-1) = %s, want easy", got)
	}
}
