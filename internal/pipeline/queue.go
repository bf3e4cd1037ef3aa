package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/replyflow-backend/internal/webhooks/meta"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
	"github.com/angelmondragon/replyflow-backend/pkg/metrics"
)

const (
	defaultQueueSize = 1024
	defaultWorkers   = 8
)

// Task is a unit of post-response work.
type Task func(ctx context.Context) error

type queuedTask struct {
	name string
	run  Task
}

// Queue runs tasks on a bounded set of workers, independent of the request
// that enqueued them. The owner calls Start once and Stop once.
type Queue struct {
	tasks   chan queuedTask
	workers int
	logg    *logger.Logger
	metrics *metrics.PipelineMetrics

	mu      sync.RWMutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewQueue(size, workers int, logg *logger.Logger, m *metrics.PipelineMetrics) (*Queue, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if size <= 0 {
		size = defaultQueueSize
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Queue{
		tasks:   make(chan queuedTask, size),
		workers: workers,
		logg:    logg,
		metrics: m,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the workers. Tasks inherit ctx's values but not its
// cancellation.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return fmt.Errorf("queue already started")
	}
	if q.closed {
		return fmt.Errorf("queue already stopped")
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	q.cancel = cancel
	q.started = true
	go q.run(runCtx)
	return nil
}

// Stop refuses new tasks and waits for queued and running ones to finish. If
// ctx ends first, running tasks are cancelled and ctx's error is returned.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.started || q.closed {
		q.closed = true
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

// Enqueue never blocks. It returns false when the queue is full, not started
// or stopped; the task is then dropped.
func (q *Queue) Enqueue(name string, task Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.started || q.closed {
		q.drop(name, "queue.not_running")
		return false
	}
	select {
	case q.tasks <- queuedTask{name: name, run: task}:
		return true
	default:
		q.drop(name, "queue.full")
		return false
	}
}

func (q *Queue) drop(name, reason string) {
	q.metrics.IncQueueDropped()
	q.logg.Warn(q.logg.WithField(context.Background(), "task", name), reason)
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)
	var g errgroup.Group
	g.SetLimit(q.workers)
	for task := range q.tasks {
		g.Go(func() error {
			q.execute(ctx, task)
			return nil
		})
	}
	_ = g.Wait()
}

func (q *Queue) execute(ctx context.Context, task queuedTask) {
	tctx := q.logg.WithField(ctx, "task", task.name)
	defer func() {
		if r := recover(); r != nil {
			q.logg.Error(tctx, "queue.task_panic", fmt.Errorf("panic: %v", r))
		}
	}()
	if err := task.run(tctx); err != nil {
		q.logg.Error(tctx, "queue.task_failed", err)
	}
}

// Intake turns webhook entries into queued pipeline runs.
type Intake struct {
	queue    *Queue
	pipeline *Pipeline
}

func NewIntake(queue *Queue, pipeline *Pipeline) (*Intake, error) {
	if queue == nil || pipeline == nil {
		return nil, fmt.Errorf("queue and pipeline required")
	}
	return &Intake{queue: queue, pipeline: pipeline}, nil
}

// Submit enqueues entry and reports whether it was accepted.
func (i *Intake) Submit(platform enums.Platform, entry meta.Entry, receivedAt time.Time) bool {
	return i.queue.Enqueue("entry:"+entry.ID, func(ctx context.Context) error {
		i.pipeline.Process(ctx, platform, entry, receivedAt)
		return nil
	})
}
