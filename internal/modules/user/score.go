package user

import (
	"math"
	"sort"
	"time"

	"github.com/echo88/core/internal/models"
)

// SuggestedUser is a follow suggestion with its ranking score.
type SuggestedUser struct {
	User        *models.UserModel `json:"user"`
	MutualCount int               `json:"mutual_count"`
	Score       float64           `json:"-"`
}

const (
	mutualWeight  = 10.0
	popularityCap = 5.0
	recencyWindow = 30 * 24 * time.Hour
	recencyWeight = 2.0
)

// SuggestionScore ranks candidates by mutual follows first, then log-damped
// popularity, with a small boost for recently created accounts.
func SuggestionScore(mutuals, followerCount int, createdAt time.Time) float64 {
	score := float64(mutuals) * mutualWeight

	if followerCount > 0 {
		pop := math.Log10(float64(followerCount) + 1)
		if pop > popularityCap {
			pop = popularityCap
		}
		score += pop
	}

	age := time.Since(createdAt)
	if age < recencyWindow && age >= 0 {
		score += recencyWeight * (1 - age.Seconds()/recencyWindow.Seconds())
	}

	return score
}

// SortSuggestions orders by score descending, username as tiebreak for
// stable output.
func SortSuggestions(list []SuggestedUser) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].User.Username < list[j].User.Username
	})
}
