package user

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
	require.NoError(t, db.AutoMigrate(&models.UserModel{}, &models.FollowModel{}))

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewService(db, taskqueue.NewService(redisc.Wrap(rdb)), zap.NewNop()), db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.UserModel {
	t.Helper()
	u := models.UserModel{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestFollowUnfollowRefollow(t *testing.T) {
	svc, db := newTestService(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, svc.Follow(alice.ID, bob.ID))
	require.NoError(t, svc.Unfollow(alice.ID, bob.ID))

	// the removed edge must not block a fresh one on the unique index
	require.NoError(t, svc.Follow(alice.ID, bob.ID))

	var edges int64
	require.NoError(t, db.Model(&models.FollowModel{}).
		Where("follower_id = ? AND followee_id = ?", alice.ID, bob.ID).
		Count(&edges).Error)
	assert.EqualValues(t, 1, edges)

	var followee models.UserModel
	require.NoError(t, db.First(&followee, "id = ?", bob.ID).Error)
	assert.Equal(t, 1, followee.FollowerCount)

	var follower models.UserModel
	require.NoError(t, db.First(&follower, "id = ?", alice.ID).Error)
	assert.Equal(t, 1, follower.FollowingCount)
}

func TestFollowIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, svc.Follow(alice.ID, bob.ID))
	require.NoError(t, svc.Follow(alice.ID, bob.ID))

	var followee models.UserModel
	require.NoError(t, db.First(&followee, "id = ?", bob.ID).Error)
	assert.Equal(t, 1, followee.FollowerCount)
}

func TestUnfollowWithoutEdge(t *testing.T) {
	svc, db := newTestService(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	assert.ErrorIs(t, svc.Unfollow(alice.ID, bob.ID), errNotFollowing)
}
