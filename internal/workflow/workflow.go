// Package workflow drives every mutating action against the ledger engine:
// confirmation-gated settle/delete, field edits, payment recording and
// multi-person split creation. Every successful write is followed by a full
// reconciliation refresh; the client never patches remaining_amount, status
// or transactions locally.
package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"splitbook/internal/core"
	"splitbook/internal/ledger"
	"splitbook/internal/log"
)

// API is the slice of the ledger client the workflows need.
type API interface {
	Create(ctx context.Context, req ledger.CreateObligationRequest) (core.Obligation, error)
	Update(ctx context.Context, id string, req ledger.UpdateObligationRequest) (core.Obligation, error)
	Delete(ctx context.Context, id string) error
	AddTransaction(ctx context.Context, id string, req ledger.TransactionRequest) (core.Obligation, error)
	Settle(ctx context.Context, id string) (core.Obligation, error)
}

// Refresher re-fetches the current tab and the active snapshot.
type Refresher interface {
	Refresh(ctx context.Context)
}

type Workflow struct {
	api       API
	refresher Refresher
	logger    *log.Logger
}

func New(api API, refresher Refresher, logger *log.Logger) *Workflow {
	if logger == nil {
		logger = log.New(nil, log.ComponentWorkflow)
	}
	return &Workflow{api: api, refresher: refresher, logger: logger}
}

// Confirmation is a pending destructive action. The network call bound to
// the target fires only on Confirm; dropping the token cancels with no call.
type Confirmation struct {
	Message string
	commit  func(ctx context.Context) error
}

// Confirm runs the committed action. An engine 404 means the target was
// already gone (for example deleted elsewhere between confirmation and
// commit) and counts as success; the reconciliation refresh that follows
// restores a consistent view either way.
func (c *Confirmation) Confirm(ctx context.Context) error {
	return c.commit(ctx)
}

// ConfirmSettle prepares the settle action for an obligation.
func (w *Workflow) ConfirmSettle(ob core.Obligation) *Confirmation {
	id := ob.ID
	return &Confirmation{
		Message: fmt.Sprintf("Mark %s's dues (%s) as fully settled?", ob.PersonName, ob.RemainingAmount.Format()),
		commit: func(ctx context.Context) error {
			if _, err := w.api.Settle(ctx, id); err != nil && !ledger.IsNotFound(err) {
				return fmt.Errorf("settle obligation: %w", err)
			}
			w.logger.InfoContext(ctx, "obligation settled", "id", id)
			w.refresher.Refresh(ctx)
			return nil
		},
	}
}

// ConfirmDelete prepares the irreversible delete action for an obligation.
func (w *Workflow) ConfirmDelete(ob core.Obligation) *Confirmation {
	id := ob.ID
	return &Confirmation{
		Message: fmt.Sprintf("Delete %s's dues? This cannot be undone.", ob.PersonName),
		commit: func(ctx context.Context) error {
			if err := w.api.Delete(ctx, id); err != nil && !ledger.IsNotFound(err) {
				return fmt.Errorf("delete obligation: %w", err)
			}
			w.logger.InfoContext(ctx, "obligation deleted", "id", id)
			w.refresher.Refresh(ctx)
			return nil
		},
	}
}

// CreateSplit validates the draft and creates one obligation per person,
// sequentially, each carrying an equal share of the total. Recurring splits
// carry an equal share of the monthly deduction too, so each member's
// deduction never exceeds their own total. Splits across more than one
// person share a freshly generated trxn_id.
//
// A failure partway leaves the earlier creations in place with no rollback;
// the error reports how far the sequence got and the next reconciliation
// shows whatever was actually created.
func (w *Workflow) CreateSplit(ctx context.Context, draft core.SplitDraft) error {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return err
	}

	perPerson := core.SplitEqually(draft.TotalAmount, len(draft.Names))
	var trxnID string
	if len(draft.Names) > 1 {
		trxnID = uuid.NewString()
	}

	for i, name := range draft.Names {
		req := ledger.CreateObligationRequest{
			PersonName:  name,
			Type:        draft.Type,
			Direction:   draft.Direction,
			TotalAmount: perPerson,
			Note:        draft.Note,
			TrxnID:      trxnID,
		}
		if draft.Type == core.Recurring {
			req.ExpectedPerCycle = core.SplitEqually(draft.ExpectedPerCycle, len(draft.Names))
		}
		if _, err := w.api.Create(ctx, req); err != nil {
			return fmt.Errorf("create obligation for %q (%d of %d created): %w",
				name, i, len(draft.Names), err)
		}
	}

	w.logger.InfoContext(ctx, "split created",
		"people", len(draft.Names),
		"per_person_paise", int64(perPerson),
		"trxn_id", trxnID)
	w.refresher.Refresh(ctx)
	return nil
}

// Edit validates the draft and patches the obligation's editable fields.
func (w *Workflow) Edit(ctx context.Context, ob core.Obligation, draft core.EditDraft) error {
	draft.Type = ob.Type
	if err := draft.Validate(); err != nil {
		return err
	}

	name := draft.PersonName
	total := draft.TotalAmount
	note := draft.Note
	req := ledger.UpdateObligationRequest{
		PersonName:  &name,
		TotalAmount: &total,
		Note:        &note,
	}
	if ob.Type == core.Recurring && draft.ExpectedPerCycle != 0 {
		per := draft.ExpectedPerCycle
		req.ExpectedPerCycle = &per
	}

	if _, err := w.api.Update(ctx, ob.ID, req); err != nil {
		return fmt.Errorf("update obligation: %w", err)
	}
	w.logger.InfoContext(ctx, "obligation updated", "id", ob.ID)
	w.refresher.Refresh(ctx)
	return nil
}

// RecordPayment validates the draft and appends a transaction to the
// obligation. The new remaining amount comes back from the engine on the
// reconciliation refresh, never from local arithmetic.
func (w *Workflow) RecordPayment(ctx context.Context, id string, draft core.PaymentDraft) error {
	if err := draft.Validate(); err != nil {
		return err
	}

	if _, err := w.api.AddTransaction(ctx, id, ledger.TransactionRequest{
		Amount: draft.Amount,
		Note:   draft.Note,
	}); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	w.logger.InfoContext(ctx, "payment recorded", "id", id, "amount_paise", int64(draft.Amount))
	w.refresher.Refresh(ctx)
	return nil
}
