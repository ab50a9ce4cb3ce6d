package chain

import (
	"context"
	"errors"
	"fmt"

	"go_dcd/internal/model"
	"go_dcd/internal/provider"
)

// User-facing fault messages. Client faults carry the provider's own text;
// everything else gets a fixed message so internal detail never leaks.
const (
	msgNoCatalog      = "No valid image or flavor"
	msgUnknown        = "Something goes wrong, you might want to contact the admin."
	msgRetryExhausted = "Gave up waiting for instance to become ready"
)

// renderFault maps a classified fault onto the message stored on the record.
func renderFault(err error, endpoint string) string {
	var fault *provider.Fault
	if !errors.As(err, &fault) {
		return msgUnknown
	}
	switch fault.Kind {
	case provider.FaultCatalog:
		return msgNoCatalog
	case provider.FaultConnection:
		return fmt.Sprintf("Fail to connect to %s", endpoint)
	case provider.FaultClient:
		if fault.Err != nil {
			return fault.Err.Error()
		}
		return msgUnknown
	default:
		return msgUnknown
	}
}

// completeChain is the success hook: persist the terminal instance status,
// then notify. The commit must succeed before any notification goes out.
func (o *Orchestrator) completeChain(ctx context.Context, rec *model.DeploymentRecord, status string) error {
	rec.InstanceStatus = &status
	if status == provider.StatusActive {
		rec.ChainStatus = model.ChainStatusActive
	} else {
		rec.ChainStatus = model.ChainStatusInstanceError
	}
	if err := o.store.Update(rec); err != nil {
		return fmt.Errorf("persist terminal status for job %s: %w", rec.JobID, err)
	}
	o.logger.WithField("job", rec.JobID).Infof("Chain finished, instance status %q", status)
	o.notifyOutcome(rec)
	return nil
}

// failChain is the failure hook: classify the fault, persist the rendered
// message and notify. A failed commit is returned, never swallowed; a lost
// failure record is as bad as a lost success record. A terminal record holds
// either an instance id or an error message, never both, so the failure
// commit clears the instance fields.
func (o *Orchestrator) failChain(ctx context.Context, rec *model.DeploymentRecord, status model.ChainStatus, fault error) error {
	msg := renderFault(fault, rec.Endpoint)
	o.logger.WithField("job", rec.JobID).Errorf("Chain failed (%s): %v", status, fault)

	rec.ChainStatus = status
	rec.ErrorMessage = &msg
	rec.InstanceID = nil
	rec.InstanceStatus = nil
	if err := o.store.Update(rec); err != nil {
		return fmt.Errorf("persist failure for job %s: %w", rec.JobID, err)
	}
	o.notifyOutcome(rec)
	return nil
}

// giveUp ends the chain after the poll retry budget is spent.
func (o *Orchestrator) giveUp(ctx context.Context, rec *model.DeploymentRecord, fault error) error {
	msg := msgRetryExhausted
	o.logger.WithField("job", rec.JobID).Errorf("Chain timed out: %v", fault)

	rec.ChainStatus = model.ChainStatusPollTimeout
	rec.ErrorMessage = &msg
	rec.InstanceID = nil
	rec.InstanceStatus = nil
	if err := o.store.Update(rec); err != nil {
		return fmt.Errorf("persist timeout for job %s: %w", rec.JobID, err)
	}
	o.notifyOutcome(rec)
	return nil
}

// notifyOutcome sends the terminal result at most once, only after the
// record commit succeeded. Delivery failures are logged and dropped; they
// never re-open the record.
func (o *Orchestrator) notifyOutcome(rec *model.DeploymentRecord) {
	if o.notifier == nil || rec.EmailAddr == "" {
		return
	}
	if err := o.notifier.Notify(rec); err != nil {
		o.logger.WithField("job", rec.JobID).Errorf("Notification failed: %v", err)
	}
}
