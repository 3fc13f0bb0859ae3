package post

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
		&models.PostLike{}, &models.SavedPost{},
	))

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewService(db, taskqueue.NewService(redisc.Wrap(rdb)), zap.NewNop()), db
}

func seedPost(t *testing.T, db *gorm.DB) (models.UserModel, models.UserModel, models.PostModel) {
	t.Helper()
	author := models.UserModel{Username: "author", Email: "author@example.com", Password: "x"}
	viewer := models.UserModel{Username: "viewer", Email: "viewer@example.com", Password: "x"}
	require.NoError(t, db.Create(&author).Error)
	require.NoError(t, db.Create(&viewer).Error)
	p := models.PostModel{AuthorID: author.ID, Text: "hello"}
	require.NoError(t, db.Create(&p).Error)
	return author, viewer, p
}

func TestLikeUnlikeRelike(t *testing.T) {
	svc, db := newTestService(t)
	_, viewer, p := seedPost(t, db)

	require.NoError(t, svc.Like(p.ID, viewer.ID))
	require.NoError(t, svc.Unlike(p.ID, viewer.ID))

	// the removed like must not block a fresh one on the unique index
	require.NoError(t, svc.Like(p.ID, viewer.ID))

	liked, err := svc.HasLiked(p.ID, viewer.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	var got models.PostModel
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, 1, got.LikeCount)
}

func TestSaveUnsaveResave(t *testing.T) {
	svc, db := newTestService(t)
	_, viewer, p := seedPost(t, db)

	require.NoError(t, svc.Save(p.ID, viewer.ID, nil))
	require.NoError(t, svc.Unsave(p.ID, viewer.ID))
	require.NoError(t, svc.Save(p.ID, viewer.ID, nil))

	var saves int64
	require.NoError(t, db.Model(&models.SavedPost{}).
		Where("post_id = ? AND user_id = ?", p.ID, viewer.ID).
		Count(&saves).Error)
	assert.EqualValues(t, 1, saves)

	var got models.PostModel
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, 1, got.SaveCount)
}

func TestLikeIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	_, viewer, p := seedPost(t, db)

	require.NoError(t, svc.Like(p.ID, viewer.ID))
	require.NoError(t, svc.Like(p.ID, viewer.ID))

	var got models.PostModel
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, 1, got.LikeCount)
}
