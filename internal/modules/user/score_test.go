package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/echo88/core/internal/models"
)

func TestSuggestionScoreMutualsDominate(t *testing.T) {
	old := time.Now().Add(-90 * 24 * time.Hour)

	withMutuals := SuggestionScore(3, 10, old)
	popularNoMutuals := SuggestionScore(0, 1_000_000, old)

	assert.Greater(t, withMutuals, popularNoMutuals)
}

func TestSuggestionScorePopularityDamped(t *testing.T) {
	old := time.Now().Add(-90 * 24 * time.Hour)

	small := SuggestionScore(0, 100, old)
	huge := SuggestionScore(0, 100_000_000, old)

	assert.Greater(t, huge, small)
	// log damping plus cap keeps the gap narrow
	assert.Less(t, huge-small, popularityCap)
}

func TestSuggestionScoreRecencyBoost(t *testing.T) {
	fresh := SuggestionScore(0, 100, time.Now().Add(-time.Hour))
	stale := SuggestionScore(0, 100, time.Now().Add(-60*24*time.Hour))

	assert.Greater(t, fresh, stale)
}

func TestSortSuggestionsStableTiebreak(t *testing.T) {
	mk := func(name string, score float64) SuggestedUser {
		return SuggestedUser{User: &models.UserModel{Username: name}, Score: score}
	}
	list := []SuggestedUser{mk("zoe", 1), mk("amy", 1), mk("max", 5)}

	SortSuggestions(list)

	assert.Equal(t, "max", list[0].User.Username)
	assert.Equal(t, "amy", list[1].User.Username)
	assert.Equal(t, "zoe", list[2].User.Username)
}
