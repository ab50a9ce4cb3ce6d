package chain

import (
	"context"
	"fmt"
	"time"

	"go_dcd/internal/model"
	"go_dcd/internal/provider"
	"go_dcd/internal/queue"
)

// PollResult is the scheduled-continuation outcome of one poll step: either
// the instance reached a terminal status, the retry budget ran out, or the
// poll should run again after a delay.
type PollResult struct {
	Done      bool
	Exhausted bool
	// Status is the terminal instance status when Done and not Exhausted.
	Status string
	// RetryAfter and NextAttempt describe the continuation when not Done.
	RetryAfter  time.Duration
	NextAttempt int
}

// NextDelay returns the backoff before the poll after the given zero-based
// attempt: min(base * 2^attempt, cap).
func NextDelay(attempt int, base, cap time.Duration) time.Duration {
	delay := base << uint(attempt)
	if delay <= 0 || delay > cap {
		return cap
	}
	return delay
}

// EvalPoll decides what one observed status means for the given attempt.
// Only the transient "building" status continues the loop; the observation
// after maxRetries retries exhausts the budget.
func EvalPoll(status string, attempt, maxRetries int, base, cap time.Duration) PollResult {
	if status != provider.StatusBuilding {
		return PollResult{Done: true, Status: status}
	}
	if attempt >= maxRetries {
		return PollResult{Done: true, Exhausted: true}
	}
	return PollResult{
		RetryAfter:  NextDelay(attempt, base, cap),
		NextAttempt: attempt + 1,
	}
}

// HandlePoll runs stage 2: query the instance status once and either finish
// the chain or reschedule itself. The worker is released between polls.
func (o *Orchestrator) HandlePoll(ctx context.Context, task *queue.Task) error {
	log := o.logger.WithField("job", task.JobID)

	payload, err := decodePayload(task)
	if err != nil {
		return fmt.Errorf("decode poll payload for job %s: %w", task.JobID, err)
	}

	rec, err := o.store.GetByJobID(task.JobID)
	if err != nil {
		return fmt.Errorf("load record for job %s: %w", task.JobID, err)
	}
	if rec.ChainStatus.Terminal() {
		log.Warnf("Record already terminal (%s), skipping poll", rec.ChainStatus)
		return nil
	}

	if rec.ChainStatus != model.ChainStatusPolling {
		rec.ChainStatus = model.ChainStatusPolling
		if err := o.store.Update(rec); err != nil {
			return fmt.Errorf("mark record polling for job %s: %w", task.JobID, err)
		}
	}

	client := o.providers(payload.credentials())
	inst, err := client.GetInstance(ctx, payload.InstanceID)
	if err != nil {
		return o.failChain(ctx, rec, model.ChainStatusPollFailed, err)
	}

	result := EvalPoll(inst.Status, task.Attempt, o.maxRetries, o.backoffBase, o.backoffCap)
	switch {
	case result.Exhausted:
		fault := provider.NewFault(provider.FaultUnknown,
			fmt.Errorf("instance %s still building after %d polls", payload.InstanceID, task.Attempt+1))
		return o.giveUp(ctx, rec, fault)
	case result.Done:
		return o.completeChain(ctx, rec, result.Status)
	default:
		log.Infof("Instance %s still building, retrying in %v (attempt %d)",
			payload.InstanceID, result.RetryAfter, result.NextAttempt)
		next := &queue.Task{
			Type:    TaskTypePoll,
			JobID:   task.JobID,
			Attempt: result.NextAttempt,
			Payload: task.Payload,
		}
		if err := o.scheduler.EnqueueAfter(ctx, next, result.RetryAfter); err != nil {
			return fmt.Errorf("reschedule poll for job %s: %w", task.JobID, err)
		}
		return nil
	}
}
