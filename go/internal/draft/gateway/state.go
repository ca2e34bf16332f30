package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftarena/draftarena/go/internal/models"
)

// DraftSnapshot is the full picture a client needs when it first connects,
// before live events start arriving.
type DraftSnapshot struct {
	Draft       *models.Draft   `json:"draft"`
	Teams       []models.Team   `json:"teams"`
	Picks       []models.Pick   `json:"picks"`
	LiveAuction *models.Auction `json:"live_auction,omitempty"`
}

// StateProvider assembles snapshots for reconnecting clients.
type StateProvider interface {
	Snapshot(ctx context.Context, draftID uuid.UUID) (*DraftSnapshot, error)
}

// StateHandler serves draft snapshots over HTTP.
type StateHandler struct {
	provider StateProvider
}

func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{provider: provider}
}

func (h *StateHandler) HandleDraftState(w http.ResponseWriter, r *http.Request) {
	draftIDStr := r.URL.Query().Get("draft_id")
	if draftIDStr == "" {
		http.Error(w, "draft_id is required", http.StatusBadRequest)
		return
	}
	draftID, err := uuid.Parse(draftIDStr)
	if err != nil {
		http.Error(w, "invalid draft_id format", http.StatusBadRequest)
		return
	}

	snapshot, err := h.provider.Snapshot(r.Context(), draftID)
	if err != nil {
		log.Error().Err(err).Str("draft_id", draftIDStr).Msg("failed to build snapshot")
		http.Error(w, "failed to load draft state", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Error().Err(err).Msg("failed to encode snapshot")
	}
}
