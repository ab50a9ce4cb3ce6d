// Package chain runs the two-stage deployment pipeline: a deploy task that
// creates the instance, chained into a poll task that watches it until a
// terminal status. Each stage is a queue task; the poll stage reschedules
// itself with backoff while the instance is still building. Exactly one
// deployment record tracks every chain, and only its own chain writes to it.
package chain

import (
	"context"
	"encoding/json"
	"time"

	"go_dcd/internal/notify"
	"go_dcd/internal/provider"
	"go_dcd/internal/queue"
	"go_dcd/internal/store"

	"github.com/sirupsen/logrus"
)

// Task types handled by the chain.
const (
	TaskTypeDeploy = "deploy"
	TaskTypePoll   = "poll"
)

// Default poll backoff: min(10s * 2^attempt, 30m), at most 8 retries.
const (
	DefaultBackoffBase = 10 * time.Second
	DefaultBackoffCap  = 30 * time.Minute
	DefaultMaxRetries  = 8
)

// taskPayload carries the submission credentials through both stages and,
// from stage 1 on, the created instance id. Credentials never touch the
// deployment record.
type taskPayload struct {
	Endpoint   string `json:"endpoint"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Project    string `json:"project"`
	InstanceID string `json:"instanceId,omitempty"`
}

func (p *taskPayload) credentials() provider.Credentials {
	return provider.Credentials{
		Endpoint: p.Endpoint,
		Username: p.Username,
		Password: p.Password,
		Project:  p.Project,
	}
}

// Scheduler enqueues chain tasks. Satisfied by *queue.Queue.
type Scheduler interface {
	Enqueue(ctx context.Context, task *queue.Task) error
	EnqueueAfter(ctx context.Context, task *queue.Task, delay time.Duration) error
}

// Config holds the orchestrator dependencies.
type Config struct {
	Store     *store.Store
	Providers provider.Factory
	Scheduler Scheduler
	Notifier  *notify.Dispatcher
	Logger    *logrus.Entry

	// InstanceName is the name given to created instances.
	InstanceName string

	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxRetries  int
}

// Orchestrator wires stage 1 to stage 2 and owns the completion hooks.
type Orchestrator struct {
	store     *store.Store
	providers provider.Factory
	scheduler Scheduler
	notifier  *notify.Dispatcher
	logger    *logrus.Entry

	instanceName string
	backoffBase  time.Duration
	backoffCap   time.Duration
	maxRetries   int
}

// NewOrchestrator creates the chain orchestrator.
func NewOrchestrator(cfg *Config) *Orchestrator {
	o := &Orchestrator{
		store:        cfg.Store,
		providers:    cfg.Providers,
		scheduler:    cfg.Scheduler,
		notifier:     cfg.Notifier,
		logger:       cfg.Logger.WithField("component", "chain"),
		instanceName: cfg.InstanceName,
		backoffBase:  cfg.BackoffBase,
		backoffCap:   cfg.BackoffCap,
		maxRetries:   cfg.MaxRetries,
	}
	if o.instanceName == "" {
		o.instanceName = "dcd-instance"
	}
	if o.backoffBase <= 0 {
		o.backoffBase = DefaultBackoffBase
	}
	if o.backoffCap <= 0 {
		o.backoffCap = DefaultBackoffCap
	}
	if o.maxRetries <= 0 {
		o.maxRetries = DefaultMaxRetries
	}
	return o
}

// RegisterHandlers binds the chain's task handlers onto a worker pool.
func (o *Orchestrator) RegisterHandlers(w *queue.Worker) {
	w.Register(TaskTypeDeploy, o.HandleDeploy)
	w.Register(TaskTypePoll, o.HandlePoll)
}

func decodePayload(task *queue.Task) (*taskPayload, error) {
	var p taskPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
