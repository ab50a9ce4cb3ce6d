package queue

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Handler processes one task. A returned error is logged; the task is not
// redelivered (retry policy belongs to the handler, not the queue).
type Handler func(ctx context.Context, task *Task) error

// WorkerConfig holds the configuration for a worker pool.
type WorkerConfig struct {
	Queue           *Queue
	Logger          *logrus.Entry
	Concurrency     int
	DequeueTimeout  time.Duration
	PromoteInterval time.Duration
}

// Worker runs a pool of goroutines consuming tasks from a queue, plus one
// promoter goroutine that moves due delayed tasks onto the ready list.
type Worker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	queue    *Queue
	logger   *logrus.Entry
	handlers map[string]Handler

	concurrency     int
	dequeueTimeout  time.Duration
	promoteInterval time.Duration
	wg              sync.WaitGroup
}

// NewWorker creates a worker pool. Handlers are registered before Start.
func NewWorker(cfg *WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		ctx:             ctx,
		cancel:          cancel,
		queue:           cfg.Queue,
		logger:          cfg.Logger.WithField("component", "queue-worker"),
		handlers:        make(map[string]Handler),
		concurrency:     cfg.Concurrency,
		dequeueTimeout:  cfg.DequeueTimeout,
		promoteInterval: cfg.PromoteInterval,
	}
	if w.concurrency <= 0 {
		w.concurrency = 4
	}
	if w.dequeueTimeout <= 0 {
		w.dequeueTimeout = time.Second
	}
	if w.promoteInterval <= 0 {
		w.promoteInterval = time.Second
	}
	return w
}

// Register binds a handler to a task type. Must be called before Start.
func (w *Worker) Register(taskType string, h Handler) {
	w.handlers[taskType] = h
}

// Start launches the consumer goroutines and the promoter.
func (w *Worker) Start() {
	w.logger.Infof("Starting worker pool (concurrency=%d)", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.consumeLoop()
	}

	w.wg.Add(1)
	go w.promoteLoop()
}

// Stop cancels the pool and waits for in-flight tasks to finish.
func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
	w.logger.Info("Worker pool stopped")
}

func (w *Worker) consumeLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		task, err := w.queue.Dequeue(w.ctx, w.dequeueTimeout)
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			w.logger.Errorf("Dequeue failed: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.dispatch(task)
	}
}

func (w *Worker) dispatch(task *Task) {
	handler, ok := w.handlers[task.Type]
	if !ok {
		w.logger.Errorf("No handler for task type %q (job=%s), dropping", task.Type, task.JobID)
		return
	}
	if err := handler(w.ctx, task); err != nil {
		w.logger.WithField("job", task.JobID).Errorf("Task %s failed: %v", task.Type, err)
	}
}

func (w *Worker) promoteLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.promoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.queue.PromoteDue(w.ctx); err != nil && w.ctx.Err() == nil {
				w.logger.Errorf("Promote failed: %v", err)
			}
		}
	}
}
