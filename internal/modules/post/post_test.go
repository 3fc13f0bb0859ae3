package post

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractHashtags(t *testing.T) {
	tags := ExtractHashtags("Golden hour #Sunset #beach #sunset walk")
	assert.Equal(t, []string{"sunset", "beach"}, tags)
}

func TestExtractHashtagsUnicode(t *testing.T) {
	tags := ExtractHashtags("#夕焼け at the pier #2025_summer")
	assert.Equal(t, []string{"夕焼け", "2025_summer"}, tags)
}

func TestExtractHashtagsNone(t *testing.T) {
	assert.Nil(t, ExtractHashtags("no tags here"))
}

func TestExtractMentions(t *testing.T) {
	mentions := ExtractMentions("with @sam.j and @ria_k, thanks @sam.j!")
	assert.Equal(t, []string{"sam.j", "ria_k"}, mentions)
}

func TestTrendingScoreDecays(t *testing.T) {
	now := time.Now()

	fresh := TrendingScore(100, 10, 5, now.Add(-1*time.Hour), now)
	stale := TrendingScore(100, 10, 5, now.Add(-48*time.Hour), now)

	assert.Greater(t, fresh, stale)
}

func TestTrendingScoreCommentsOutweighLikes(t *testing.T) {
	now := time.Now()
	created := now.Add(-6 * time.Hour)

	comments := TrendingScore(0, 10, 0, created, now)
	likes := TrendingScore(10, 0, 0, created, now)

	assert.Greater(t, comments, likes)
}

func TestTrendingScoreFutureClamped(t *testing.T) {
	now := time.Now()
	score := TrendingScore(10, 0, 0, now.Add(time.Hour), now)
	assert.InDelta(t, TrendingScore(10, 0, 0, now, now), score, 1e-9)
}
