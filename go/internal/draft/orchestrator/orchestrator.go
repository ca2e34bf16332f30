// Package orchestrator runs the deadline scheduler: a single loop that
// sleeps until the soonest pick or auction deadline across all drafts, then
// fans expired work out to a small worker pool. State lives in the database;
// the scheduler holds no timers that matter across restarts.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftarena/draftarena/go/internal/draft/auction"
	"github.com/draftarena/draftarena/go/internal/draft/draft"
	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/draft/turn"
	"github.com/draftarena/draftarena/go/internal/models"
)

// DraftApp defines what the scheduler needs from the draft lifecycle.
type DraftApp interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	FetchNextDeadline(ctx context.Context) (*draft.NextDeadline, error)
	FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error)
}

// AuctionApp defines what the scheduler needs from the auction coordinator.
type AuctionApp interface {
	GetLiveAuction(ctx context.Context, draftID uuid.UUID) (*models.Auction, error)
	FetchNextDeadline(ctx context.Context) (*auction.NextDeadline, error)
	FetchAuctionsDue(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error)
	Resolve(ctx context.Context, auctionID uuid.UUID) error
}

// PickApp is the fallback when a timed-out turn produces no pick.
type PickApp interface {
	SkipTurn(ctx context.Context, draftID uuid.UUID, turnNum int) error
}

// WishlistApp turns a timed-out turn into an auto-pick when possible.
type WishlistApp interface {
	ResolveAutoPick(ctx context.Context, draft *models.Draft, teamID uuid.UUID, turnNum int) (*models.Pick, error)
}

// TeamApp resolves which team sits at a given seat.
type TeamApp interface {
	GetTeamBySeat(ctx context.Context, draftID uuid.UUID, seat int) (*models.Team, error)
}

type taskKind int

const (
	taskPickTimeout taskKind = iota
	taskAuctionExpiry
)

type task struct {
	kind      taskKind
	draftID   uuid.UUID
	auctionID uuid.UUID
}

func (t task) key() uuid.UUID {
	if t.kind == taskAuctionExpiry {
		return t.auctionID
	}
	return t.draftID
}

type Orchestrator struct {
	drafts    DraftApp
	auctions  AuctionApp
	picks     PickApp
	wishlists WishlistApp
	teams     TeamApp

	clock      clockwork.Clock
	batchSize  int32
	wakeCh     chan struct{}
	instanceID string

	numWorkers int
	workCh     chan task

	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex
}

func New(drafts DraftApp, auctions AuctionApp, picks PickApp, wishlists WishlistApp, teams TeamApp, clock clockwork.Clock, batchSize int32) *Orchestrator {
	numWorkers := 10
	return &Orchestrator{
		drafts:     drafts,
		auctions:   auctions,
		picks:      picks,
		wishlists:  wishlists,
		teams:      teams,
		clock:      clock,
		batchSize:  batchSize,
		wakeCh:     make(chan struct{}, 1),
		instanceID: uuid.New().String()[:8],
		numWorkers: numWorkers,
		workCh:     make(chan task, numWorkers*2),
		inFlight:   make(map[uuid.UUID]bool),
	}
}

// Wake nudges the scheduler to re-read deadlines, for callers that just
// armed a sooner one.
func (o *Orchestrator) Wake() {
	select {
	case o.wakeCh <- struct{}{}:
	default:
	}
}

// Run loops forever, sleeping until the next deadline and firing timeouts.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Info().Str("instance", o.instanceID).Int("workers", o.numWorkers).Msg("scheduler started")

	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < o.numWorkers; i++ {
		wg.Add(1)
		go o.worker(workerCtx, &wg, i)
	}
	defer func() {
		cancelWorkers()
		close(o.workCh)
		wg.Wait()
		log.Info().Str("instance", o.instanceID).Msg("all workers shut down")
	}()

	timer := o.clock.NewTimer(0)
	defer timer.Stop()

	const idlePollDuration = 5 * time.Second
	retryCount := 0
	const maxRetries = 3

	for {
		select {
		case <-o.wakeCh:
		default:
		}

		deadline, err := o.nextDeadline(ctx)
		if err != nil {
			retryCount++
			if retryCount <= maxRetries {
				log.Error().Err(err).
					Int("retry", retryCount).
					Str("instance", o.instanceID).
					Msg("error fetching next deadline, retrying")
				timer.Reset(time.Second * time.Duration(retryCount))
				select {
				case <-timer.Chan():
					continue
				case <-ctx.Done():
					return nil
				}
			}
			log.Error().Err(err).Str("instance", o.instanceID).Msg("error fetching next deadline after retries")
			return err
		}
		retryCount = 0

		if deadline == nil {
			timer.Reset(idlePollDuration)
			select {
			case <-timer.Chan():
				continue
			case <-ctx.Done():
				return nil
			case <-o.wakeCh:
				continue
			}
		}

		if wait := deadline.Sub(o.clock.Now()); wait > 0 {
			timer.Reset(wait)
			select {
			case <-timer.Chan():
			case <-ctx.Done():
				return nil
			case <-o.wakeCh:
				// A sooner deadline may have been armed.
				continue
			}
		}

		if err := o.dispatchDue(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Error().Err(err).Str("instance", o.instanceID).Msg("error dispatching due work")
			timer.Reset(time.Second)
			select {
			case <-timer.Chan():
				continue
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// nextDeadline returns the soonest deadline across drafts and auctions, or
// nil when nothing is armed.
func (o *Orchestrator) nextDeadline(ctx context.Context) (*time.Time, error) {
	var soonest *time.Time

	dd, err := o.drafts.FetchNextDeadline(ctx)
	if err != nil {
		return nil, err
	}
	if dd != nil && dd.Deadline != nil {
		soonest = dd.Deadline
	}

	ad, err := o.auctions.FetchNextDeadline(ctx)
	if err != nil {
		return nil, err
	}
	if ad != nil && (soonest == nil || ad.EndsAt.Before(*soonest)) {
		soonest = &ad.EndsAt
	}
	return soonest, nil
}

func (o *Orchestrator) dispatchDue(ctx context.Context) error {
	now := o.clock.Now()

	dueDrafts, err := o.drafts.FetchDraftsDueForPick(ctx, now, o.batchSize)
	if err != nil {
		return err
	}
	for _, draftID := range dueDrafts {
		if err := o.enqueue(ctx, task{kind: taskPickTimeout, draftID: draftID}); err != nil {
			return err
		}
	}

	dueAuctions, err := o.auctions.FetchAuctionsDue(ctx, now, o.batchSize)
	if err != nil {
		return err
	}
	for _, auctionID := range dueAuctions {
		if err := o.enqueue(ctx, task{kind: taskAuctionExpiry, auctionID: auctionID}); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) enqueue(ctx context.Context, t task) error {
	key := t.key()
	o.inFlightMu.Lock()
	if o.inFlight[key] {
		o.inFlightMu.Unlock()
		return nil
	}
	o.inFlight[key] = true
	o.inFlightMu.Unlock()

	select {
	case <-ctx.Done():
		o.inFlightMu.Lock()
		delete(o.inFlight, key)
		o.inFlightMu.Unlock()
		return ctx.Err()
	case o.workCh <- t:
		return nil
	}
}

func (o *Orchestrator) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-o.workCh:
			if !ok {
				return
			}
			var err error
			switch t.kind {
			case taskPickTimeout:
				err = o.handlePickTimeout(ctx, t.draftID)
			case taskAuctionExpiry:
				err = o.auctions.Resolve(ctx, t.auctionID)
			}
			if err != nil {
				log.Error().Err(err).
					Str("instance", o.instanceID).
					Int("worker_id", workerID).
					Msg("timeout handling failed")
			}
			o.inFlightMu.Lock()
			delete(o.inFlight, t.key())
			o.inFlightMu.Unlock()
		}
	}
}

// handlePickTimeout fires when a turn's clock ran out without a pick. Snake
// drafts fall back to the team's wishlist, then to a skip. Auction drafts
// reaching this point had a nomination window lapse; with a live auction
// still running the deadline is stale and is left for the auction path.
func (o *Orchestrator) handlePickTimeout(ctx context.Context, draftID uuid.UUID) error {
	d, err := o.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return err
	}
	if d.Status != models.DraftStatusDrafting {
		return nil
	}

	if d.Mode == models.DraftModeAuction {
		live, err := o.auctions.GetLiveAuction(ctx, draftID)
		if err != nil && !errors.Is(err, fault.ErrNotFound) {
			return err
		}
		if live != nil {
			return nil
		}
		// Nominator never nominated; the turn is forfeit.
		return o.ignoreRaces(o.picks.SkipTurn(ctx, draftID, d.CurrentTurn))
	}

	team, err := o.teams.GetTeamBySeat(ctx, draftID, turn.SeatAt(d.CurrentTurn, d.TeamCount()))
	if err != nil {
		return err
	}

	_, err = o.wishlists.ResolveAutoPick(ctx, d, team.ID, d.CurrentTurn)
	if err == nil {
		return nil
	}
	if errors.Is(err, fault.ErrNotFound) {
		return o.ignoreRaces(o.picks.SkipTurn(ctx, draftID, d.CurrentTurn))
	}
	return o.ignoreRaces(err)
}

// ignoreRaces swallows losses against a user action that consumed the turn
// between deadline fetch and handling.
func (o *Orchestrator) ignoreRaces(err error) error {
	if errors.Is(err, fault.ErrWrongTurn) || errors.Is(err, fault.ErrDraftNotActive) {
		return nil
	}
	return err
}
