package app

import (
	"recrypt/internal/recrypt"
)

// MigrationOperation tracks one CLI migration through the journal.
// The run is created in memory; it is started in the journal only once the
// destination root has been created.
type MigrationOperation struct {
	Run     *recrypt.Run
	started bool
}

// NewMigrationOperation creates an in-memory operation for migrating src to
// dst for recipient.
func NewMigrationOperation(id, src, dst, recipient string, clock recrypt.Clock) *MigrationOperation {
	return &MigrationOperation{
		Run: &recrypt.Run{
			ID:          id,
			Source:      src,
			Destination: dst,
			Recipient:   recipient,
			StartedAt:   clock.Now(),
			Status:      recrypt.RunRunning,
		},
	}
}

// Start records the run in the journal.
func (op *MigrationOperation) Start(j recrypt.Journal) error {
	if err := j.StartRun(op.Run); err != nil {
		return err
	}
	op.started = true
	return nil
}

// Started returns true if this operation has been recorded in the journal.
func (op *MigrationOperation) Started() bool {
	return op.started
}

// Finish sets the final status from the outcome of the walk and records it
// in the journal if the run was started there.
func (op *MigrationOperation) Finish(j recrypt.Journal, clock recrypt.Clock, walkErr error) error {
	op.Run.Status = recrypt.RunSuccess
	if walkErr != nil {
		op.Run.Status = recrypt.RunError
	}
	now := clock.Now()
	op.Run.FinishedAt.Time, op.Run.FinishedAt.Valid = now, true

	if !op.started {
		return nil
	}
	return j.FinishRun(op.Run.ID, op.Run.Status, now)
}
