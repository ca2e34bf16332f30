package teams

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftarena/draftarena/go/internal/models"
)

// TeamRepository defines what the team app layer needs from the repository.
type TeamRepository interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetTeamBySeat(ctx context.Context, draftID uuid.UUID, seat int) (*models.Team, error)
	ListTeamsByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Team, error)
}

// App handles team business logic.
type App struct {
	repo TeamRepository
}

func NewApp(repo TeamRepository) *App {
	return &App{repo: repo}
}

// CreateTeam registers a drafting seat with a fresh ledger.
func (a *App) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	if err := a.validateCreateTeamRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	team, err := a.repo.CreateTeam(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	log.Info().
		Str("team_id", team.ID.String()).
		Str("draft_id", team.DraftID.String()).
		Int("seat", team.DraftOrderIndex).
		Msg("team registered")
	return team, nil
}

func (a *App) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return a.repo.GetTeam(ctx, id)
}

// GetTeamBySeat resolves a draft-order seat to its team.
func (a *App) GetTeamBySeat(ctx context.Context, draftID uuid.UUID, seat int) (*models.Team, error) {
	return a.repo.GetTeamBySeat(ctx, draftID, seat)
}

func (a *App) ListTeamsByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Team, error) {
	return a.repo.ListTeamsByDraft(ctx, draftID)
}

func (a *App) validateCreateTeamRequest(req CreateTeamRequest) error {
	if req.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if req.DraftID == uuid.Nil {
		return fmt.Errorf("draft_id is required")
	}
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.DraftOrderIndex < 1 {
		return fmt.Errorf("draft_order_index must be at least 1")
	}
	if req.BudgetTotal < 0 {
		return fmt.Errorf("budget_total cannot be negative")
	}
	if req.UndoQuota < 0 {
		return fmt.Errorf("undo_quota cannot be negative")
	}
	return nil
}
