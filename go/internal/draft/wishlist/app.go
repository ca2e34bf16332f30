package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/draft/pick"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/rules"
)

// WishlistRepository defines what the wishlist app layer needs from storage.
type WishlistRepository interface {
	AddItem(ctx context.Context, teamID uuid.UUID, characterID string) (*models.WishlistItem, error)
	RemoveItem(ctx context.Context, teamID uuid.UUID, characterID string) error
	Reorder(ctx context.Context, teamID uuid.UUID, characterIDs []string) error
	ListItems(ctx context.Context, teamID uuid.UUID) ([]models.WishlistItem, error)
	ListAvailable(ctx context.Context, teamID uuid.UUID) ([]models.WishlistItem, error)
}

// PickApp is the commit path used for auto-picks.
type PickApp interface {
	AttemptPick(ctx context.Context, req pick.AttemptPickRequest) (*models.Pick, error)
}

// Affordability is the read-side budget check used while scanning.
type Affordability interface {
	CanAfford(ctx context.Context, teamID uuid.UUID, cost int) (bool, error)
}

// App manages per-team wishlists and resolves them into auto-picks when a
// turn times out.
type App struct {
	repo   WishlistRepository
	picks  PickApp
	ledger Affordability
	oracle rules.LegalityOracle
}

func NewApp(repo WishlistRepository, picks PickApp, ledger Affordability, oracle rules.LegalityOracle) *App {
	return &App{
		repo:   repo,
		picks:  picks,
		ledger: ledger,
		oracle: oracle,
	}
}

// AddItem appends a character to the team's wishlist.
func (a *App) AddItem(ctx context.Context, teamID uuid.UUID, characterID string) (*models.WishlistItem, error) {
	if characterID == "" {
		return nil, fmt.Errorf("character ID is required")
	}
	return a.repo.AddItem(ctx, teamID, characterID)
}

// RemoveItem removes a character from the team's wishlist.
func (a *App) RemoveItem(ctx context.Context, teamID uuid.UUID, characterID string) error {
	return a.repo.RemoveItem(ctx, teamID, characterID)
}

// Reorder replaces the team's wishlist ranking.
func (a *App) Reorder(ctx context.Context, teamID uuid.UUID, characterIDs []string) error {
	seen := make(map[string]struct{}, len(characterIDs))
	for _, id := range characterIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("character %s listed twice in reorder", id)
		}
		seen[id] = struct{}{}
	}
	return a.repo.Reorder(ctx, teamID, characterIDs)
}

// ListItems returns the team's wishlist in priority order.
func (a *App) ListItems(ctx context.Context, teamID uuid.UUID) ([]models.WishlistItem, error) {
	return a.repo.ListItems(ctx, teamID)
}

// ResolveAutoPick scans the team's wishlist in priority order and commits
// the first entry that is still available, affordable, and legal for the
// draft's format. It returns fault.ErrNotFound when nothing on the list
// qualifies; the caller decides what a barren wishlist means for the turn.
func (a *App) ResolveAutoPick(ctx context.Context, draft *models.Draft, teamID uuid.UUID, turnNum int) (*models.Pick, error) {
	items, err := a.repo.ListAvailable(ctx, teamID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		verdict := a.oracle.Validate(item.CharacterID, draft.Settings.FormatID)
		if !verdict.IsLegal {
			continue
		}
		if verdict.Cost > 0 {
			ok, err := a.ledger.CanAfford(ctx, teamID, verdict.Cost)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		committed, err := a.picks.AttemptPick(ctx, pick.AttemptPickRequest{
			DraftID:     draft.ID,
			TeamID:      teamID,
			CharacterID: item.CharacterID,
			Turn:        turnNum,
			AutoPicked:  true,
		})
		if err == nil {
			log.Info().
				Str("team_id", teamID.String()).
				Str("character_id", item.CharacterID).
				Int("priority", item.Priority).
				Msg("wishlist auto-pick committed")
			return committed, nil
		}
		// Lost a race on this character; keep scanning. Any other failure
		// applies to the turn itself, not the entry.
		if errors.Is(err, fault.ErrAlreadyDrafted) {
			continue
		}
		return nil, err
	}
	return nil, fault.ErrNotFound
}
