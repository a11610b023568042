package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/trellisdata/trellis/internal/domain"
)

// Caps on persisted error text. The ledger carries a short summary; the
// audit log carries the longer form.
const (
	ledgerErrorLimit = 1000
	auditErrorLimit  = 5000
)

// commitSuccess applies the success commit shape: upsert the result
// payload, mark the instance done and mirror the progress row, all in one
// transaction. If any write fails the transaction rolls back and nothing is
// observably applied; the instance stays running until an administrative
// reset returns it to pending.
func (w *Worker) commitSuccess(
	ctx context.Context,
	inst *domain.TaskInstance,
	payload json.RawMessage,
) error {
	return w.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := w.results.WithTx(tx).Upsert(ctx, inst.Key, payload); err != nil {
			return err
		}
		if err := w.instances.WithTx(tx).MarkDone(ctx, inst.ID); err != nil {
			return err
		}
		return w.progress.WithTx(tx).SetStatus(ctx, inst.Key, domain.InstanceStatusDone, "")
	})
}

// commitFailure applies the failure commit shape: mark the instance failed
// (incrementing attempts), mirror the progress row and append one audit
// entry with the longer error text, all in one transaction.
func (w *Worker) commitFailure(
	ctx context.Context,
	inst *domain.TaskInstance,
	cause error,
) error {
	short := truncateText(cause.Error(), ledgerErrorLimit)
	full := truncateText(cause.Error(), auditErrorLimit)
	occurredAt := time.Now().UTC()

	return w.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := w.instances.WithTx(tx).MarkFailed(ctx, inst.ID, short); err != nil {
			return err
		}
		if err := w.progress.WithTx(tx).SetStatus(ctx, inst.Key, domain.InstanceStatusFailed, short); err != nil {
			return err
		}
		return w.errorLog.WithTx(tx).Append(ctx, inst.Key, full, occurredAt)
	})
}

// truncateText caps s at limit runes, appending an ellipsis when cut.
func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
