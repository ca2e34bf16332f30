package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/draftarena/draftarena/go/internal/draft/auction"
	draftapp "github.com/draftarena/draftarena/go/internal/draft/draft"
	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/draft/gateway"
	"github.com/draftarena/draftarena/go/internal/draft/orchestrator"
	"github.com/draftarena/draftarena/go/internal/draft/outbox"
	"github.com/draftarena/draftarena/go/internal/draft/pick"
	"github.com/draftarena/draftarena/go/internal/draft/wishlist"
	"github.com/draftarena/draftarena/go/internal/leagues"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/rules"
	"github.com/draftarena/draftarena/go/internal/standings"
	"github.com/draftarena/draftarena/go/internal/teams"
	"github.com/draftarena/draftarena/go/internal/trades"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
)

type Services struct {
	Drafts    *draftapp.App
	Teams     *teams.App
	Picks     *pick.App
	Auctions  *auction.App
	Wishlists *wishlist.App
	Leagues   *leagues.App
	Standings *standings.App
	Trades    *trades.App

	Orchestrator *orchestrator.Orchestrator
	OutboxWorker *outbox.Worker
	Gateway      *gateway.Service
}

func setupServices(pool *pgxpool.Pool, relayDB *sql.DB, config *Config, oracle rules.LegalityOracle) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → workers
	clock := clockwork.NewRealClock()

	// Teams and the budget/roster ledger
	teamsRepo := teams.NewRepository(pool)
	teamsApp := teams.NewApp(teamsRepo)
	ledger := teams.NewLedger(pool)

	// Outbox
	outboxRepo := outbox.NewRepository(pool)

	// Draft lifecycle. The auction repository doubles as the clock the host's
	// pause/resume commands freeze and re-arm.
	auctionRepo := auction.NewRepository(pool)
	draftRepo := draftapp.NewRepository(pool)
	drafts := draftapp.NewApp(draftRepo, outboxRepo, auctionRepo, clock)

	// Picks and undo
	pickRepo := pick.NewRepository(pool, ledger, outboxRepo)
	picks := pick.NewApp(pickRepo, drafts, teamsApp, oracle, clock)

	// Auctions
	auctions := auction.NewApp(auctionRepo, drafts, teamsApp, picks, ledger, oracle, outboxRepo, clock)

	// Wishlists
	wishlistRepo := wishlist.NewRepository(pool)
	wishlists := wishlist.NewApp(wishlistRepo, picks, ledger, oracle)

	// Leagues and schedule generation
	leagueRepo := leagues.NewRepository(pool)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	leagueApp := leagues.NewApp(leagueRepo, drafts, teamsApp, outboxRepo, rng)

	// Standings. Attached back onto the league app so every recorded result
	// refreshes the table.
	standingsRepo := standings.NewRepository(pool)
	standingsApp := standings.NewApp(standingsRepo, leagueApp)
	leagueApp.AttachStandings(standingsApp)

	// Trades
	tradesRepo := trades.NewRepository(pool, outboxRepo)
	tradesApp := trades.NewApp(tradesRepo, leagueApp, drafts, teamsApp, picks, clock)

	// Deadline orchestrator
	batchSize := config.Orchestrator.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	orch := orchestrator.New(drafts, auctions, picks, wishlists, teamsApp, clock, batchSize)

	// Outbox relay → JetStream
	natsURL := config.NATS.URL
	if natsURL == "" {
		natsURL = getEnv("NATS_URL", "")
	}
	jsConfig := outbox.DefaultJetStreamConfig()
	if natsURL != "" {
		jsConfig.URL = natsURL
	}
	publisher, err := outbox.NewJetStreamPublisher(jsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	worker := outbox.NewWorker(relayDB, publisher, outbox.DefaultWorkerConfig())

	// WebSocket gateway
	gatewayConfig := gateway.DefaultConfig()
	if natsURL != "" {
		gatewayConfig.ConsumerConfig.URL = natsURL
	}
	provider := &snapshotProvider{
		drafts:   drafts,
		teams:    teamsApp,
		picks:    picks,
		auctions: auctions,
	}
	gw, err := gateway.NewService(gatewayConfig, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	return &Services{
		Drafts:       drafts,
		Teams:        teamsApp,
		Picks:        picks,
		Auctions:     auctions,
		Wishlists:    wishlists,
		Leagues:      leagueApp,
		Standings:    standingsApp,
		Trades:       tradesApp,
		Orchestrator: orch,
		OutboxWorker: worker,
		Gateway:      gw,
	}, nil
}

// snapshotProvider assembles full draft state for reconnecting clients.
type snapshotProvider struct {
	drafts   *draftapp.App
	teams    *teams.App
	picks    *pick.App
	auctions *auction.App
}

func (p *snapshotProvider) Snapshot(ctx context.Context, draftID uuid.UUID) (*gateway.DraftSnapshot, error) {
	draft, err := p.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	draftTeams, err := p.teams.ListTeamsByDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	draftPicks, err := p.picks.ListPicksByDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	var live *models.Auction
	if draft.Mode == models.DraftModeAuction {
		live, err = p.auctions.GetLiveAuction(ctx, draftID)
		if err != nil && !errors.Is(err, fault.ErrNotFound) {
			return nil, err
		}
	}

	return &gateway.DraftSnapshot{
		Draft:       draft,
		Teams:       draftTeams,
		Picks:       draftPicks,
		LiveAuction: live,
	}, nil
}
