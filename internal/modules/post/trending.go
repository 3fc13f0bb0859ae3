package post

import (
	"math"
	"time"
)

const (
	likeWeight    = 2.0
	commentWeight = 3.0
	saveWeight    = 1.0
	decayExponent = 1.5
	decayOffset   = 2.0 // hours, keeps brand-new posts from dividing by ~0
)

// trendingOrderSQL ranks posts by weighted engagement with time decay,
// evaluated in the database so pagination stays cheap.
const trendingOrderSQL = "(like_count * 2 + comment_count * 3 + save_count) / POW(TIMESTAMPDIFF(HOUR, posts.created_at, NOW()) + 2, 1.5) DESC"

// TrendingScore is the Go mirror of trendingOrderSQL, used for tests and
// any in-process ranking.
func TrendingScore(likes, comments, saves int, createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	engagement := float64(likes)*likeWeight + float64(comments)*commentWeight + float64(saves)*saveWeight
	return engagement / math.Pow(hours+decayOffset, decayExponent)
}
