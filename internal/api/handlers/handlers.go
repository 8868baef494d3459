package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fincoach/coach/internal/agent"
	"github.com/fincoach/coach/internal/analytics"
	"github.com/fincoach/coach/internal/api/middleware"
)

// maxMessageBytes bounds a chat request body.
const maxMessageBytes = 16 << 10

// ChatHandler exposes the coaching agent over HTTP.
type ChatHandler struct {
	agent *agent.Agent
	log   zerolog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(a *agent.Agent, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{agent: a, log: log}
}

// CreateSession handles POST /api/sessions
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customer_id"`
		Name       string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CustomerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	sessionID, err := h.agent.StartSession(r.Context(), req.CustomerID, req.Name)
	if err != nil {
		h.log.Error().Err(err).Str("customer_id", req.CustomerID).Msg("Failed to start session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"session_id":  sessionID,
		"customer_id": req.CustomerID,
	})
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBytes)

	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		middleware.WriteError(w, http.StatusBadRequest, "session_id and message are required")
		return
	}

	reply, err := h.agent.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.log.Error().Err(err).Str("session_id", req.SessionID).Msg("Chat turn failed")
		middleware.WriteError(w, http.StatusNotFound, "Unknown session or unavailable data")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, reply)
}

// InsightsHandler serves raw verified analytics, bypassing narration.
type InsightsHandler struct {
	source agent.TransactionSource
	clock  func() time.Time
	log    zerolog.Logger
}

// NewInsightsHandler creates an insights handler. A nil clock means wall
// time.
func NewInsightsHandler(source agent.TransactionSource, clock func() time.Time, log zerolog.Logger) *InsightsHandler {
	if clock == nil {
		clock = time.Now
	}
	return &InsightsHandler{source: source, clock: clock, log: log}
}

// Insights handles GET /api/insights?customer_id=...&months=N
func (h *InsightsHandler) Insights(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	customerID := query.Get("customer_id")
	if customerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	months := 3
	if s := query.Get("months"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid months value")
			return
		}
		months = n
	}

	profile, err := h.source.Profile(r.Context(), customerID)
	if err != nil {
		h.log.Error().Err(err).Str("customer_id", customerID).Msg("Failed to load transactions")
		middleware.WriteError(w, http.StatusNotFound, "Unknown customer")
		return
	}

	engine := analytics.NewEngine(profile, analytics.WithClock(h.clock))
	middleware.WriteJSON(w, http.StatusOK, engine.Insights(months))
}
