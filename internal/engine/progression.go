package engine

import "humanping/internal/domain"

// Completed-mission counts at which a user graduates to the next tier.
const (
	mediumThreshold = 7
	hardThreshold   = 20
)

// TierFor maps a user's lifetime completed-mission count to a difficulty
// tier. Lower bounds are inclusive: 7 completions is medium, 20 is hard.
func TierFor(completedCount int) domain.Difficulty {
	switch {
	case completedCount >= hardThreshold:
		return domain.DifficultyHard
	case completedCount >= mediumThreshold:
		return domain.DifficultyMedium
	default:
		return domain.DifficultyEasy
	}
}
