package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"go_dcd/internal/model"
	"go_dcd/internal/queue"

	"github.com/google/uuid"
)

// SubmitParams is one provisioning request as accepted from the web layer.
// Field-level validation happens before this point.
type SubmitParams struct {
	Endpoint  string
	Username  string
	Password  string
	Project   string
	Memo      string
	ClientIP  string
	EmailAddr string
}

// StatusView is the read-only projection served to polling clients.
type StatusView struct {
	JobID          string  `json:"jobId"`
	ChainStatus    string  `json:"chainStatus"`
	InstanceID     *string `json:"instanceId,omitempty"`
	InstanceStatus *string `json:"instanceStatus,omitempty"`
	ErrorMessage   *string `json:"errorMessage,omitempty"`
}

// Submit assigns a job id, persists the record and enqueues stage 1. The
// record exists before any provisioning work is attempted; if it cannot be
// created there is no chain at all.
func (o *Orchestrator) Submit(ctx context.Context, params SubmitParams) (string, error) {
	jobID := uuid.NewString()

	rec := &model.DeploymentRecord{
		JobID:       jobID,
		Endpoint:    params.Endpoint,
		Username:    params.Username,
		Memo:        params.Memo,
		ClientIP:    params.ClientIP,
		EmailAddr:   params.EmailAddr,
		ChainStatus: model.ChainStatusCreated,
	}
	if err := o.store.Create(rec); err != nil {
		return "", fmt.Errorf("create record for job %s: %w", jobID, err)
	}

	payload, err := json.Marshal(&taskPayload{
		Endpoint: params.Endpoint,
		Username: params.Username,
		Password: params.Password,
		Project:  params.Project,
	})
	if err != nil {
		return "", fmt.Errorf("encode deploy payload for job %s: %w", jobID, err)
	}

	task := &queue.Task{Type: TaskTypeDeploy, JobID: jobID, Payload: payload}
	if err := o.scheduler.Enqueue(ctx, task); err != nil {
		// The record stays in "created"; the chain never started.
		return "", fmt.Errorf("enqueue deploy task for job %s: %w", jobID, err)
	}

	o.logger.WithField("job", jobID).Info("Deployment submitted")
	return jobID, nil
}

// GetStatus returns the current projection of a record. Unknown job ids
// surface store.ErrNotFound.
func (o *Orchestrator) GetStatus(jobID string) (*StatusView, error) {
	rec, err := o.store.GetByJobID(jobID)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		JobID:          rec.JobID,
		ChainStatus:    string(rec.ChainStatus),
		InstanceID:     rec.InstanceID,
		InstanceStatus: rec.InstanceStatus,
		ErrorMessage:   rec.ErrorMessage,
	}, nil
}
