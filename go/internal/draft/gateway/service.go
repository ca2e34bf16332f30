package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service ties the connection manager, WebSocket handler, and JetStream
// consumer together.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	eventConsumer     *EventConsumer
}

// Config holds configuration for the gateway service.
type Config struct {
	ConnectionConfig ConnectionConfig
	ConsumerConfig   ConsumerConfig
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		ConsumerConfig:   DefaultConsumerConfig(),
	}
}

func NewService(config Config, stateProvider StateProvider) (*Service, error) {
	cm := NewConnectionManager(config.ConnectionConfig)

	eventConsumer, err := NewEventConsumer(cm, config.ConsumerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}

	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		stateHandler:      NewStateHandler(stateProvider),
		eventConsumer:     eventConsumer,
	}, nil
}

// Start runs the gateway until the context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting gateway service")

	go s.connectionManager.Start(ctx)
	go func() {
		if err := s.eventConsumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("event consumer failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("gateway service shutting down")
	return s.eventConsumer.Stop()
}

// RegisterRoutes installs the gateway's HTTP endpoints on a mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/draft", s.wsHandler.HandleDraftConnection)
	mux.HandleFunc("/ws/stats", s.wsHandler.HandleConnectionStats)
	mux.HandleFunc("/drafts/state", s.stateHandler.HandleDraftState)
}
