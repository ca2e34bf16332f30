package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const itemColumns = `id, team_id, character_id, priority, is_available, created_at`

// AddItem appends a character at the end of the team's wishlist. Adding a
// character that is already on the list is a conflict.
func (r *Repository) AddItem(ctx context.Context, teamID uuid.UUID, characterID string) (*models.WishlistItem, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO wishlist_items (id, team_id, character_id, priority)
		VALUES ($1, $2, $3, (
			SELECT COALESCE(MAX(priority), 0) + 1 FROM wishlist_items WHERE team_id = $2
		))
		RETURNING `+itemColumns,
		uuid.New(), teamID, characterID,
	)
	item, err := scanItem(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("character %s already wishlisted for team %s", characterID, teamID)
		}
		return nil, fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes one entry and closes the priority gap it leaves.
func (r *Repository) RemoveItem(ctx context.Context, teamID uuid.UUID, characterID string) error {
	return sqlutil.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var removed int
		err := tx.QueryRow(ctx, `
			DELETE FROM wishlist_items
			WHERE team_id = $1 AND character_id = $2
			RETURNING priority`,
			teamID, characterID,
		).Scan(&removed)
		if errors.Is(err, pgx.ErrNoRows) {
			return fault.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to remove wishlist item: %w", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE wishlist_items SET priority = priority - 1
			WHERE team_id = $1 AND priority > $2`,
			teamID, removed,
		)
		if err != nil {
			return fmt.Errorf("failed to compact wishlist priorities: %w", err)
		}
		return nil
	})
}

// Reorder replaces the team's wishlist ranking wholesale. The given character
// IDs must be exactly the set currently on the list.
func (r *Repository) Reorder(ctx context.Context, teamID uuid.UUID, characterIDs []string) error {
	return sqlutil.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM wishlist_items WHERE team_id = $1`,
			teamID,
		).Scan(&count); err != nil {
			return fmt.Errorf("failed to count wishlist items: %w", err)
		}
		if count != len(characterIDs) {
			return fmt.Errorf("reorder lists %d characters but wishlist has %d", len(characterIDs), count)
		}

		// Shift out of the way first so the unique (team_id, priority)
		// constraint cannot trip mid-renumber.
		if _, err := tx.Exec(ctx, `
			UPDATE wishlist_items SET priority = priority + $2
			WHERE team_id = $1`,
			teamID, count,
		); err != nil {
			return fmt.Errorf("failed to stage wishlist reorder: %w", err)
		}
		for i, characterID := range characterIDs {
			tag, err := tx.Exec(ctx, `
				UPDATE wishlist_items SET priority = $3
				WHERE team_id = $1 AND character_id = $2`,
				teamID, characterID, i+1,
			)
			if err != nil {
				return fmt.Errorf("failed to reorder wishlist item: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("character %s is not on team %s's wishlist", characterID, teamID)
			}
		}
		return nil
	})
}

// ListItems returns the team's wishlist in priority order.
func (r *Repository) ListItems(ctx context.Context, teamID uuid.UUID) ([]models.WishlistItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM wishlist_items
		WHERE team_id = $1
		ORDER BY priority`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// ListAvailable returns only the entries not yet taken by any team, in
// priority order.
func (r *Repository) ListAvailable(ctx context.Context, teamID uuid.UUID) ([]models.WishlistItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM wishlist_items
		WHERE team_id = $1 AND is_available
		ORDER BY priority`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list available wishlist items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows pgx.Rows) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := row.Scan(
		&item.ID, &item.TeamID, &item.CharacterID,
		&item.Priority, &item.IsAvailable, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
