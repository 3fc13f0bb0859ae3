package comment

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/echo88/core/internal/models"
	redisc "github.com/echo88/core/internal/pkg/redis"
	"github.com/echo88/core/internal/pkg/taskqueue"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.UserModel{}, &models.PostModel{},
		&models.CommentModel{}, &models.CommentLike{},
	))

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewService(db, taskqueue.NewService(redisc.Wrap(rdb)), zap.NewNop()), db
}

func TestCommentLikeUnlikeRelike(t *testing.T) {
	svc, db := newTestService(t)

	author := models.UserModel{Username: "author", Email: "author@example.com", Password: "x"}
	viewer := models.UserModel{Username: "viewer", Email: "viewer@example.com", Password: "x"}
	require.NoError(t, db.Create(&author).Error)
	require.NoError(t, db.Create(&viewer).Error)
	p := models.PostModel{AuthorID: author.ID, Text: "hello"}
	require.NoError(t, db.Create(&p).Error)
	cm := models.CommentModel{PostID: p.ID, AuthorID: author.ID, Text: "first"}
	require.NoError(t, db.Create(&cm).Error)

	require.NoError(t, svc.Like(cm.ID, viewer.ID))
	require.NoError(t, svc.Unlike(cm.ID, viewer.ID))

	// the removed like must not block a fresh one on the unique index
	require.NoError(t, svc.Like(cm.ID, viewer.ID))

	var got models.CommentModel
	require.NoError(t, db.First(&got, "id = ?", cm.ID).Error)
	assert.Equal(t, 1, got.LikeCount)

	var likes int64
	require.NoError(t, db.Model(&models.CommentLike{}).
		Where("comment_id = ? AND user_id = ?", cm.ID, viewer.ID).
		Count(&likes).Error)
	assert.EqualValues(t, 1, likes)
}
