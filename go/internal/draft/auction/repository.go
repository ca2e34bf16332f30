package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/sqlutil"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const auctionColumns = `id, draft_id, character_id, nominating_team_id,
	current_bid, current_bidder_id, ends_at, state, paused_remaining_sec, created_at`

// CreateAuction opens a nomination, guarded so a draft can only ever have
// one live auction. Zero rows inserted means another auction is still live.
func (r *Repository) CreateAuction(ctx context.Context, a models.Auction) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO auctions (id, draft_id, character_id, nominating_team_id, current_bid, ends_at, state)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM auctions
			WHERE draft_id = $2 AND state IN ($8, $9)
		)
		RETURNING `+auctionColumns,
		a.ID, a.DraftID, a.CharacterID, a.NominatingTeamID, a.CurrentBid, a.EndsAt,
		string(models.AuctionStateNominated),
		string(models.AuctionStateNominated), string(models.AuctionStateBidding),
	)
	created, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrActiveAuctionExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}
	return created, nil
}

func (r *Repository) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	a, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return a, nil
}

// GetLiveAuction returns the draft's live auction, if any.
func (r *Repository) GetLiveAuction(ctx context.Context, draftID uuid.UUID) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+auctionColumns+` FROM auctions
		WHERE draft_id = $1 AND state IN ($2, $3)`,
		draftID, string(models.AuctionStateNominated), string(models.AuctionStateBidding),
	)
	a, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get live auction: %w", err)
	}
	return a, nil
}

// AcceptBid is the bid compare-and-swap: the raise only lands while the
// auction is live, unexpired, and the amount still beats the current bid
// (the opening bid may equal the floor). The accepted bid is appended to the
// bid log in the same transaction. ends_at only ever grows, so concurrent
// anti-snipe extensions cannot shorten the clock.
func (r *Repository) AcceptBid(ctx context.Context, req BidRequest, now time.Time, newEndsAt time.Time) (*models.Auction, error) {
	var accepted *models.Auction
	err := sqlutil.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE auctions
			SET current_bid = $2, current_bidder_id = $3, state = $4,
				ends_at = GREATEST(ends_at, $5)
			WHERE id = $1
			  AND state IN ($6, $7)
			  AND paused_remaining_sec IS NULL
			  AND ends_at > $8
			  AND (current_bid < $2 OR (current_bidder_id IS NULL AND current_bid <= $2))
			RETURNING `+auctionColumns,
			req.AuctionID, req.Amount, req.TeamID, string(models.AuctionStateBidding),
			newEndsAt,
			string(models.AuctionStateNominated), string(models.AuctionStateBidding),
			now,
		)
		var err error
		accepted, err = scanAuction(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return errBidNotAccepted
		}
		if err != nil {
			return fault.Infra(fmt.Errorf("failed to accept bid: %w", err))
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO bids (id, auction_id, team_id, amount, placed_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), req.AuctionID, req.TeamID, req.Amount, now,
		); err != nil {
			return fault.Infra(fmt.Errorf("failed to log bid: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// errBidNotAccepted signals that the CAS matched nothing; the app layer
// re-reads the auction to report why.
var errBidNotAccepted = errors.New("bid not accepted")

// ClaimResolution moves a due auction to resolving. Rows already in resolving
// still match, so a resolution that failed partway stays due and is retried on
// the next sweep; completed auctions never match. Double awards are blocked by
// the pick layer's turn counter, not by this claim.
func (r *Repository) ClaimResolution(ctx context.Context, auctionID uuid.UUID, now time.Time) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE auctions SET state = $2
		WHERE id = $1 AND state IN ($3, $4, $2)
		  AND paused_remaining_sec IS NULL
		  AND ends_at <= $5
		RETURNING `+auctionColumns,
		auctionID, string(models.AuctionStateResolving),
		string(models.AuctionStateNominated), string(models.AuctionStateBidding),
		now,
	)
	a, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim auction resolution: %w", err)
	}
	return a, nil
}

func (r *Repository) CompleteAuction(ctx context.Context, auctionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE auctions SET state = $2 WHERE id = $1`,
		auctionID, string(models.AuctionStateCompleted),
	)
	if err != nil {
		return fmt.Errorf("failed to complete auction: %w", err)
	}
	return nil
}

// SuspendForDraft freezes every live auction clock for a paused draft,
// recording how many seconds each had left.
func (r *Repository) SuspendForDraft(ctx context.Context, draftID uuid.UUID, now time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE auctions
		SET paused_remaining_sec = GREATEST(0, EXTRACT(EPOCH FROM (ends_at - $2))::int)
		WHERE draft_id = $1 AND state IN ($3, $4) AND paused_remaining_sec IS NULL`,
		draftID, now,
		string(models.AuctionStateNominated), string(models.AuctionStateBidding),
	)
	if err != nil {
		return fmt.Errorf("failed to suspend auction clock: %w", err)
	}
	return nil
}

// ResumeForDraft re-arms suspended auction clocks from the recorded remainder.
func (r *Repository) ResumeForDraft(ctx context.Context, draftID uuid.UUID, now time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE auctions
		SET ends_at = $2 + make_interval(secs => paused_remaining_sec),
		    paused_remaining_sec = NULL
		WHERE draft_id = $1 AND paused_remaining_sec IS NOT NULL`,
		draftID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to resume auction clock: %w", err)
	}
	return nil
}

// ExtendTime pushes a live auction's expiry out by the given duration.
func (r *Repository) ExtendTime(ctx context.Context, auctionID uuid.UUID, by time.Duration) (*models.Auction, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE auctions SET ends_at = ends_at + $2
		WHERE id = $1 AND state IN ($3, $4)
		RETURNING `+auctionColumns,
		auctionID, by,
		string(models.AuctionStateNominated), string(models.AuctionStateBidding),
	)
	a, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrAuctionNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extend auction: %w", err)
	}
	return a, nil
}

// FetchNextDeadline returns the soonest live-auction expiry, or nil.
func (r *Repository) FetchNextDeadline(ctx context.Context) (*NextDeadline, error) {
	var nd NextDeadline
	err := r.pool.QueryRow(ctx, `
		SELECT id, draft_id, ends_at FROM auctions
		WHERE state IN ($1, $2, $3) AND paused_remaining_sec IS NULL
		ORDER BY ends_at
		LIMIT 1`,
		string(models.AuctionStateNominated), string(models.AuctionStateBidding),
		string(models.AuctionStateResolving),
	).Scan(&nd.AuctionID, &nd.DraftID, &nd.EndsAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next auction deadline: %w", err)
	}
	return &nd, nil
}

// FetchAuctionsDue returns auctions whose clock has run out, including rows
// stuck in resolving after a failed award so they get retried.
func (r *Repository) FetchAuctionsDue(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM auctions
		WHERE state IN ($1, $2, $3) AND paused_remaining_sec IS NULL AND ends_at <= $4
		ORDER BY ends_at
		LIMIT $5`,
		string(models.AuctionStateNominated), string(models.AuctionStateBidding),
		string(models.AuctionStateResolving), now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due auctions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan auction id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, auction_id, team_id, amount, placed_at FROM bids
		WHERE auction_id = $1
		ORDER BY amount`,
		auctionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.TeamID, &b.Amount, &b.PlacedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func scanAuction(row pgx.Row) (*models.Auction, error) {
	var a models.Auction
	var state string
	err := row.Scan(
		&a.ID, &a.DraftID, &a.CharacterID, &a.NominatingTeamID,
		&a.CurrentBid, &a.CurrentBidderID, &a.EndsAt, &state, &a.PausedRemainingSec, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.State = models.AuctionState(state)
	return &a, nil
}
