package teams

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/sqlutil"
)

// Ledger owns the budget and roster-size columns. Charges and refunds are
// single conditional UPDATEs so the affordability check and the debit cannot
// be separated by a concurrent writer. Only the pick committer and the undo
// path may call the mutating methods, and only inside their transactions.
type Ledger struct {
	q sqlutil.DBTX
}

func NewLedger(q sqlutil.DBTX) *Ledger {
	return &Ledger{q: q}
}

// WithTx returns a copy of the ledger bound to tx.
func (l *Ledger) WithTx(tx pgx.Tx) *Ledger {
	return &Ledger{q: tx}
}

// CanAfford reports whether the team's remaining budget covers cost. This is
// a read-only check used by bid validation; committing a charge re-checks
// atomically.
func (l *Ledger) CanAfford(ctx context.Context, teamID uuid.UUID, cost int) (bool, error) {
	var remaining int
	err := l.q.QueryRow(ctx,
		`SELECT budget_remaining FROM teams WHERE id = $1`, teamID,
	).Scan(&remaining)
	if err != nil {
		return false, fmt.Errorf("failed to read budget: %w", err)
	}
	return cost <= remaining, nil
}

// Charge debits cost from the team and occupies one roster slot. The UPDATE
// only matches when the budget covers the cost and the roster has room, so
// zero rows affected means a domain rejection, never a lost update.
func (l *Ledger) Charge(ctx context.Context, teamID uuid.UUID, cost, rosterTarget int) error {
	tag, err := l.q.Exec(ctx, `
		UPDATE teams
		SET budget_remaining = budget_remaining - $2, roster_size = roster_size + 1
		WHERE id = $1 AND budget_remaining >= $2 AND roster_size < $3`,
		teamID, cost, rosterTarget,
	)
	if err != nil {
		return fault.Infra(fmt.Errorf("failed to charge team: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return l.classifyRejection(ctx, teamID, cost, rosterTarget)
	}
	return nil
}

// Refund reverses a charge: credits cost back and vacates one roster slot.
func (l *Ledger) Refund(ctx context.Context, teamID uuid.UUID, cost int) error {
	tag, err := l.q.Exec(ctx, `
		UPDATE teams
		SET budget_remaining = budget_remaining + $2, roster_size = roster_size - 1
		WHERE id = $1 AND roster_size > 0 AND budget_remaining + $2 <= budget_total`,
		teamID, cost,
	)
	if err != nil {
		return fault.Infra(fmt.Errorf("failed to refund team: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("refund of %d rejected for team %s: nothing to reverse", cost, teamID)
	}
	return nil
}

// ConsumeUndo decrements the team's undo quota, rejecting when exhausted.
func (l *Ledger) ConsumeUndo(ctx context.Context, teamID uuid.UUID) error {
	tag, err := l.q.Exec(ctx, `
		UPDATE teams SET undos_remaining = undos_remaining - 1
		WHERE id = $1 AND undos_remaining > 0`,
		teamID,
	)
	if err != nil {
		return fault.Infra(fmt.Errorf("failed to consume undo: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fault.ErrUndoQuotaExhausted
	}
	return nil
}

// classifyRejection re-reads the ledger to report which constraint blocked a
// charge. The read happens after the conditional write failed, so it is only
// for error reporting, never for the decision itself.
func (l *Ledger) classifyRejection(ctx context.Context, teamID uuid.UUID, cost, rosterTarget int) error {
	var remaining, rosterSize int
	err := l.q.QueryRow(ctx,
		`SELECT budget_remaining, roster_size FROM teams WHERE id = $1`, teamID,
	).Scan(&remaining, &rosterSize)
	if err != nil {
		return fault.Infra(fmt.Errorf("failed to classify charge rejection: %w", err))
	}
	if rosterSize >= rosterTarget {
		return fault.ErrRosterFull
	}
	if cost > remaining {
		return fault.ErrInsufficientBudget
	}
	// The blocking condition cleared between the write and this read; the
	// caller lost a race and should surface it as a budget rejection.
	return fault.ErrInsufficientBudget
}
