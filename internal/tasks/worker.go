package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/metrics"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/traces"
)

// Runner executes one task and returns its result payload.
type Runner interface {
	Run(ctx context.Context, task *Task) (any, error)
}

// Publisher receives task lifecycle notifications, typically a websocket
// hub. A nil publisher disables notifications.
type Publisher interface {
	PublishTaskUpdate(taskID, taskType, status string)
}

// Worker drains the queue with a pool of goroutines.
type Worker struct {
	queue     *Queue
	runner    Runner
	publisher Publisher
	workers   int
	logger    *slog.Logger
	stop      chan struct{}
}

// NewWorker creates a task worker pool.
func NewWorker(queue *Queue, runner Runner, publisher Publisher, workers int, logger *slog.Logger) *Worker {
	if workers < 1 {
		workers = 1
	}
	return &Worker{
		queue:     queue,
		runner:    runner,
		publisher: publisher,
		workers:   workers,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// Start begins the worker loops. Call in a goroutine; it returns when ctx
// is done or Stop is called, after in-flight tasks finish.
func (w *Worker) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.loop(ctx, n)
		}(i)
	}
	wg.Wait()
}

// Stop signals all worker loops to stop.
func (w *Worker) Stop() {
	close(w.stop)
}

func (w *Worker) loop(ctx context.Context, n int) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		task, err := w.queue.Dequeue(ctx, 2*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("task dequeue failed", "worker", n, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.process(ctx, task)
	}
}

func (w *Worker) process(ctx context.Context, task *Task) {
	ctx, span := traces.StartSpan(ctx, "tasks.process", traces.TaskID(task.ID))
	defer span.End()

	if err := w.queue.MarkRunning(ctx, task.ID); err != nil {
		w.logger.Warn("task mark running failed", "task", task.ID, "error", err)
	}
	w.notify(task, StatusRunning)

	result, err := w.runner.Run(ctx, task)
	if err != nil {
		if ferr := w.queue.Fail(ctx, task.ID, err); ferr != nil {
			w.logger.Warn("task fail update lost", "task", task.ID, "error", ferr)
		}
		metrics.TasksProcessedTotal.WithLabelValues(StatusFailed).Inc()
		w.notify(task, StatusFailed)
		w.logger.Warn("task failed", "task", task.ID, "type", task.Type, "error", err)
		return
	}

	if cerr := w.queue.Complete(ctx, task.ID, result); cerr != nil {
		w.logger.Warn("task completion update lost", "task", task.ID, "error", cerr)
	}
	metrics.TasksProcessedTotal.WithLabelValues(StatusCompleted).Inc()
	w.notify(task, StatusCompleted)
	w.logger.Info("task completed", "task", task.ID, "type", task.Type)
}

func (w *Worker) notify(task *Task, status string) {
	if w.publisher != nil {
		w.publisher.PublishTaskUpdate(task.ID, task.Type, status)
	}
}
