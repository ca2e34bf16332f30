package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/draft/pick"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/rules"
)

type fakeWishlistRepo struct {
	available []models.WishlistItem
}

func (r *fakeWishlistRepo) AddItem(ctx context.Context, teamID uuid.UUID, characterID string) (*models.WishlistItem, error) {
	return nil, nil
}

func (r *fakeWishlistRepo) RemoveItem(ctx context.Context, teamID uuid.UUID, characterID string) error {
	return nil
}

func (r *fakeWishlistRepo) Reorder(ctx context.Context, teamID uuid.UUID, characterIDs []string) error {
	return nil
}

func (r *fakeWishlistRepo) ListItems(ctx context.Context, teamID uuid.UUID) ([]models.WishlistItem, error) {
	return r.available, nil
}

func (r *fakeWishlistRepo) ListAvailable(ctx context.Context, teamID uuid.UUID) ([]models.WishlistItem, error) {
	return r.available, nil
}

type fakePickApp struct {
	attempts []string
	taken    map[string]bool
}

func (p *fakePickApp) AttemptPick(ctx context.Context, req pick.AttemptPickRequest) (*models.Pick, error) {
	p.attempts = append(p.attempts, req.CharacterID)
	if p.taken[req.CharacterID] {
		return nil, fault.ErrAlreadyDrafted
	}
	return &models.Pick{CharacterID: req.CharacterID}, nil
}

type fixedLedger struct {
	budget int
}

func (l *fixedLedger) CanAfford(ctx context.Context, teamID uuid.UUID, cost int) (bool, error) {
	return cost <= l.budget, nil
}

func items(ids ...string) []models.WishlistItem {
	out := make([]models.WishlistItem, len(ids))
	for i, id := range ids {
		out[i] = models.WishlistItem{CharacterID: id, Priority: i + 1, IsAvailable: true}
	}
	return out
}

func testDraft() *models.Draft {
	return &models.Draft{
		ID:     uuid.New(),
		Status: models.DraftStatusDrafting,
		Settings: models.DraftSettings{
			FormatID: "standard",
		},
	}
}

func TestResolveAutoPickTakesHighestPriority(t *testing.T) {
	repo := &fakeWishlistRepo{available: items("gengar", "snorlax")}
	picks := &fakePickApp{taken: map[string]bool{}}
	oracle := rules.OracleFunc(func(characterID, formatID string) rules.Verdict {
		return rules.Verdict{IsLegal: true}
	})
	app := NewApp(repo, picks, &fixedLedger{budget: 100}, oracle)

	committed, err := app.ResolveAutoPick(context.Background(), testDraft(), uuid.New(), 1)
	require.NoError(t, err)
	require.Equal(t, "gengar", committed.CharacterID)
	require.Equal(t, []string{"gengar"}, picks.attempts)
}

func TestResolveAutoPickSkipsIllegalAndUnaffordable(t *testing.T) {
	repo := &fakeWishlistRepo{available: items("mew", "tyranitar", "snorlax")}
	picks := &fakePickApp{taken: map[string]bool{}}
	oracle := rules.OracleFunc(func(characterID, formatID string) rules.Verdict {
		switch characterID {
		case "mew":
			return rules.Verdict{IsLegal: false}
		case "tyranitar":
			return rules.Verdict{IsLegal: true, Cost: 80}
		default:
			return rules.Verdict{IsLegal: true, Cost: 5}
		}
	})
	app := NewApp(repo, picks, &fixedLedger{budget: 10}, oracle)

	committed, err := app.ResolveAutoPick(context.Background(), testDraft(), uuid.New(), 1)
	require.NoError(t, err)
	require.Equal(t, "snorlax", committed.CharacterID)
}

func TestResolveAutoPickKeepsScanningAfterLostRace(t *testing.T) {
	repo := &fakeWishlistRepo{available: items("gengar", "snorlax")}
	// The list said gengar was available, but another team got there first.
	picks := &fakePickApp{taken: map[string]bool{"gengar": true}}
	oracle := rules.OracleFunc(func(characterID, formatID string) rules.Verdict {
		return rules.Verdict{IsLegal: true}
	})
	app := NewApp(repo, picks, &fixedLedger{budget: 100}, oracle)

	committed, err := app.ResolveAutoPick(context.Background(), testDraft(), uuid.New(), 1)
	require.NoError(t, err)
	require.Equal(t, "snorlax", committed.CharacterID)
	require.Equal(t, []string{"gengar", "snorlax"}, picks.attempts)
}

func TestResolveAutoPickExhaustedList(t *testing.T) {
	repo := &fakeWishlistRepo{available: items("mew")}
	picks := &fakePickApp{taken: map[string]bool{}}
	oracle := rules.OracleFunc(func(characterID, formatID string) rules.Verdict {
		return rules.Verdict{IsLegal: false}
	})
	app := NewApp(repo, picks, &fixedLedger{budget: 100}, oracle)

	_, err := app.ResolveAutoPick(context.Background(), testDraft(), uuid.New(), 1)
	require.ErrorIs(t, err, fault.ErrNotFound)
	require.Empty(t, picks.attempts)
}

func TestReorderRejectsDuplicates(t *testing.T) {
	app := NewApp(&fakeWishlistRepo{}, &fakePickApp{}, &fixedLedger{}, rules.Permissive())

	err := app.Reorder(context.Background(), uuid.New(), []string{"gengar", "snorlax", "gengar"})
	require.Error(t, err)
}
