// Package fault defines the domain failure vocabulary shared by the draft,
// league, and trade components. Domain sentinels are expected, user-facing
// outcomes; infrastructure failures are wrapped so callers can tell whether a
// retry is worthwhile.
package fault

import (
	"errors"
	"fmt"
)

// State errors.
var (
	ErrDraftNotActive   = errors.New("draft is not active")
	ErrAuctionNotActive = errors.New("auction is not active")
)

// Turn and ordering errors.
var (
	ErrWrongTurn   = errors.New("not this team's turn")
	ErrTurnExpired = errors.New("turn deadline has passed")
)

// Resource errors.
var (
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrRosterFull         = errors.New("roster is full")
)

// Legality errors.
var (
	ErrNotLegal       = errors.New("character is not legal in this format")
	ErrAlreadyDrafted = errors.New("character already drafted")
)

// Authorization errors.
var (
	ErrHostOnly    = errors.New("host-only command")
	ErrNotProposer = errors.New("only the proposing team may do this")
)

// Feature-limit errors.
var (
	ErrUndoQuotaExhausted = errors.New("no undos remaining")
	ErrNotMostRecentPick  = errors.New("pick is not the team's most recent")
)

// Auction errors.
var (
	ErrBidTooLow           = errors.New("bid must exceed the current bid")
	ErrAuctionExpired      = errors.New("auction has expired")
	ErrActiveAuctionExists = errors.New("an auction is already live for this draft")
)

// Trade errors.
var (
	ErrDeadPickInTrade = errors.New("dead pick cannot be traded")
	ErrEmptyTradeOffer = errors.New("trade offer lists no picks")
)

var ErrNotFound = errors.New("not found")

// infraError wraps store or transport failures so callers can distinguish
// them from final domain rejections.
type infraError struct {
	err error
}

func (e *infraError) Error() string { return fmt.Sprintf("infrastructure: %v", e.err) }
func (e *infraError) Unwrap() error { return e.err }

// Infra marks err as a retryable infrastructure failure.
func Infra(err error) error {
	if err == nil {
		return nil
	}
	return &infraError{err: err}
}

// Retryable reports whether err (anywhere in its chain) is an infrastructure
// failure rather than a final domain rejection.
func Retryable(err error) bool {
	var ie *infraError
	return errors.As(err, &ie)
}
