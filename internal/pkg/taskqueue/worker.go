package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Handler processes one task payload. The returned value, if any, is
// stored as the task result.
type Handler func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Worker drains the pending queue and dispatches tasks to registered
// handlers. A single worker goroutine is enough for the side-effect
// workloads the modules enqueue.
type Worker struct {
	svc      *Service
	logger   *zap.Logger
	handlers map[string]Handler
	interval time.Duration
}

func NewWorker(svc *Service, logger *zap.Logger) *Worker {
	return &Worker{
		svc:      svc,
		logger:   logger,
		handlers: make(map[string]Handler),
		interval: time.Second,
	}
}

// Register binds a handler to a task type. Must be called before Start.
func (w *Worker) Register(taskType string, h Handler) {
	w.handlers[taskType] = h
}

// Start runs the drain loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.drain(ctx)
			}
		}
	}()
}

func (w *Worker) drain(ctx context.Context) {
	for {
		task, err := w.svc.Claim(ctx)
		if err != nil {
			w.logger.Warn("task claim failed", zap.Error(err))
			return
		}
		if task == nil {
			return
		}
		w.run(ctx, task)
	}
}

func (w *Worker) run(ctx context.Context, task *Task) {
	h, ok := w.handlers[task.Type]
	if !ok {
		w.logger.Warn("no handler for task type", zap.String("type", task.Type), zap.String("id", task.ID))
		_ = w.svc.UpdateStatus(ctx, task.ID, TaskFailed, nil, fmt.Sprintf("no handler for type %q", task.Type))
		return
	}

	result, err := h(ctx, task.Payload)
	if err != nil {
		w.logger.Warn("task failed",
			zap.String("type", task.Type),
			zap.String("id", task.ID),
			zap.Error(err))
		_ = w.svc.UpdateStatus(ctx, task.ID, TaskFailed, nil, err.Error())
		return
	}
	_ = w.svc.UpdateStatus(ctx, task.ID, TaskCompleted, result, "")
}
