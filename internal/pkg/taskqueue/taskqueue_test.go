package taskqueue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	redisc "github.com/echo88/core/internal/pkg/redis"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewService(redisc.Wrap(rdb))
}

func TestEnqueueAndClaim(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Enqueue(ctx, TypeSendMail, map[string]string{"to": "a@b.c"}, "")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, TaskPending, task.Status)

	claimed, err := svc.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, task.ID, claimed.ID)
	assert.Equal(t, TaskRunning, claimed.Status)

	// queue is empty now
	next, err := svc.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestEnqueueDedup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Enqueue(ctx, TypeIndexHashtags, map[string]string{"post": "p1"}, "post:p1")
	require.NoError(t, err)

	second, err := svc.Enqueue(ctx, TypeIndexHashtags, map[string]string{"post": "p1"}, "post:p1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// completing the task releases the dedup key
	require.NoError(t, svc.UpdateStatus(ctx, first.ID, TaskCompleted, nil, ""))
	third, err := svc.Enqueue(ctx, TypeIndexHashtags, map[string]string{"post": "p1"}, "post:p1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestCancelSkipsClaim(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Enqueue(ctx, TypeFanoutNotification, nil, "")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, task.ID))

	claimed, err := svc.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, claimed)

	got, err := svc.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskCancelled, got.Status)
}

func TestWorkerRunsHandler(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Enqueue(ctx, TypeResolveMentions, map[string]string{"post": "p9"}, "")
	require.NoError(t, err)

	w := NewWorker(svc, zap.NewNop())
	var gotPayload json.RawMessage
	w.Register(TypeResolveMentions, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		gotPayload = payload
		return map[string]int{"resolved": 2}, nil
	})
	w.drain(ctx)

	assert.JSONEq(t, `{"post":"p9"}`, string(gotPayload))

	got, err := svc.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskCompleted, got.Status)
	assert.JSONEq(t, `{"resolved":2}`, string(got.Result))
}

func TestWorkerMarksFailureForUnknownType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Enqueue(ctx, "bogus.type", nil, "")
	require.NoError(t, err)

	w := NewWorker(svc, zap.NewNop())
	w.drain(ctx)

	got, err := svc.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskFailed, got.Status)
	assert.Contains(t, got.Error, "no handler")
}
