package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"go_dcd/internal/model"
	"go_dcd/internal/provider"
	"go_dcd/internal/queue"
)

// HandleDeploy runs stage 1: mark the record as provisioning, pick the first
// image and flavor from the catalog, create exactly one instance and hand
// off to the poll stage. Provisioning faults end the chain here; stage 1 is
// never retried, a second run could create a duplicate instance.
func (o *Orchestrator) HandleDeploy(ctx context.Context, task *queue.Task) error {
	log := o.logger.WithField("job", task.JobID)

	payload, err := decodePayload(task)
	if err != nil {
		return fmt.Errorf("decode deploy payload for job %s: %w", task.JobID, err)
	}

	rec, err := o.store.GetByJobID(task.JobID)
	if err != nil {
		return fmt.Errorf("load record for job %s: %w", task.JobID, err)
	}
	if rec.ChainStatus.Terminal() {
		log.Warnf("Record already terminal (%s), skipping deploy", rec.ChainStatus)
		return nil
	}

	// The record must durably say "provisioning" before the first remote
	// call; a failed commit aborts the chain with no instance created.
	rec.ChainStatus = model.ChainStatusProvisioning
	if err := o.store.Update(rec); err != nil {
		return fmt.Errorf("mark record provisioning for job %s: %w", task.JobID, err)
	}

	client := o.providers(payload.credentials())

	images, err := client.ListImages(ctx)
	if err != nil {
		return o.failChain(ctx, rec, model.ChainStatusProvisionFailed, err)
	}
	flavors, err := client.ListFlavors(ctx)
	if err != nil {
		return o.failChain(ctx, rec, model.ChainStatusProvisionFailed, err)
	}
	if len(images) == 0 || len(flavors) == 0 {
		fault := provider.NewFault(provider.FaultCatalog, fmt.Errorf("empty catalog: %d images, %d flavors", len(images), len(flavors)))
		return o.failChain(ctx, rec, model.ChainStatusProvisionFailed, fault)
	}

	// Pick-first policy: the catalog order is whatever the provider returns.
	inst, err := client.CreateInstance(ctx, o.instanceName, images[0], flavors[0], 1)
	if err != nil {
		return o.failChain(ctx, rec, model.ChainStatusProvisionFailed, err)
	}

	rec.InstanceID = &inst.ID
	rec.ChainStatus = model.ChainStatusProvisioned
	if err := o.store.Update(rec); err != nil {
		return fmt.Errorf("persist instance id for job %s: %w", task.JobID, err)
	}
	log.Infof("Instance %s created, scheduling status polls", inst.ID)

	payload.InstanceID = inst.ID
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode poll payload for job %s: %w", task.JobID, err)
	}
	pollTask := &queue.Task{
		Type:    TaskTypePoll,
		JobID:   task.JobID,
		Attempt: 0,
		Payload: data,
	}
	if err := o.scheduler.Enqueue(ctx, pollTask); err != nil {
		return fmt.Errorf("enqueue poll task for job %s: %w", task.JobID, err)
	}
	return nil
}
