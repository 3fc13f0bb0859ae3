package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	redisc "github.com/echo88/core/internal/pkg/redis"
)

func TestUserRoom(t *testing.T) {
	assert.Equal(t, "user:abc", UserRoom("abc"))
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "tok", normalizeToken("tok"))
	assert.Equal(t, "tok", normalizeToken("Bearer tok"))
	assert.Equal(t, "tok", normalizeToken("  bearer tok  "))
}

func newTestHub(t *testing.T) (*Hub, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	validator := func(string) (string, error) { return "", errors.New("rejected") }
	return NewHub(redisc.Wrap(rdb), zap.NewNop(), validator), rdb
}

func TestPushStampsOrigin(t *testing.T) {
	hub, rdb := newTestHub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go hub.Run(ctx)

	sub := rdb.Subscribe(ctx, redisChanEvents)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	hub.PushToUser("u1", "notification.new", map[string]string{"id": "n1"})

	raw, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw.Payload), &msg))
	assert.Equal(t, UserRoom("u1"), msg.Room)
	assert.NotEmpty(t, msg.Origin)

	// the publisher skips its own messages, other instances apply them
	assert.True(t, hub.fromSelf(msg))
	assert.False(t, hub.fromSelf(Message{Origin: "another-instance"}))
}

func TestFirstValueFromMultiMap(t *testing.T) {
	values := map[string][]string{
		"Token": {" abc "},
		"empty": {},
	}
	assert.Equal(t, "abc", firstValueFromMultiMap(values, "token"))
	assert.Equal(t, "", firstValueFromMultiMap(values, "empty"))
	assert.Equal(t, "", firstValueFromMultiMap(values, "missing"))
	assert.Equal(t, "", firstValueFromMultiMap(nil, "token"))
}
