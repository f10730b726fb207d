// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tonearm/tonearm/internal/dataset"
	"github.com/tonearm/tonearm/internal/logging"
	"github.com/tonearm/tonearm/internal/metrics"
	"github.com/tonearm/tonearm/internal/recommend"
	"github.com/tonearm/tonearm/internal/validation"
)

// defaultUserListLimit bounds GET /api/v1/users when no limit is given.
const defaultUserListLimit = 100

// Handler holds the dependencies of the HTTP endpoints.
type Handler struct {
	agent     *recommend.Agent
	data      *dataset.Repository
	startedAt time.Time
}

// NewHandler creates the endpoint handler.
func NewHandler(agent *recommend.Agent, data *dataset.Repository) *Handler {
	return &Handler{
		agent:     agent,
		data:      data,
		startedAt: time.Now(),
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"dataset": map[string]int{
			"artists":      h.data.ArtistCount(),
			"users":        h.data.UserCount(),
			"interactions": h.data.InteractionCount(),
			"tags":         h.data.TagCount(),
		},
	})
}

// ListUsers handles GET /api/v1/users.
// The optional limit query parameter caps the returned id list.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := defaultUserListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			rw.BadRequest("limit must be a positive integer")
			return
		}
		limit = parsed
	}

	userIDs := h.agent.AvailableUsers(limit)
	rw.SuccessWithCount(map[string]interface{}{
		"user_ids": userIDs,
	}, len(userIDs))
}

// UserState handles GET /api/v1/users/{userID}/state.
func (h *Handler) UserState(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := parseUserID(rw, r)
	if !ok {
		return
	}

	state, err := h.agent.State(userID)
	if err != nil {
		h.respondAgentError(rw, r, err)
		return
	}

	rw.Success(state)
}

// UserProfile handles GET /api/v1/users/{userID}/profile.
func (h *Handler) UserProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := parseUserID(rw, r)
	if !ok {
		return
	}

	profile, err := h.agent.UserProfile(userID)
	if err != nil {
		h.respondAgentError(rw, r, err)
		return
	}

	rw.Success(profile)
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecommendationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	start := time.Now()
	rec, decision, err := h.agent.Recommend(req.UserID, req.Context)
	if err != nil {
		h.respondAgentError(rw, r, err)
		return
	}

	metrics.RecordRecommendation(rec.Strategy.String(), decision.ActionKind, time.Since(start))
	metrics.ActiveBandits.Set(float64(h.agent.ActiveBandits()))

	rw.Success(decision)
}

// Feedback handles POST /api/v1/feedback.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req FeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	rec := h.agent.ResolveRecommendation(req.UserID, req.ArtistID)
	learning, err := h.agent.Learn(req.UserID, rec, req.FeedbackType, req.FeedbackValue)
	if err != nil {
		h.respondAgentError(rw, r, err)
		return
	}

	metrics.RecordFeedback(req.FeedbackType, learning.Outcome.String(), learning.Reward)

	rw.Success(learning)
}

// Statistics handles GET /api/v1/statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.agent.Statistics())
}

// respondAgentError maps engine errors to HTTP responses. ErrUserNotFound
// is the only user-facing error; anything else is an internal fault.
func (h *Handler) respondAgentError(rw *ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, recommend.ErrUserNotFound) {
		rw.NotFound(err.Error())
		return
	}

	logger := logging.Ctx(r.Context())
	logger.Error().Err(err).Msg("Recommendation engine error")
	rw.InternalError("An internal error occurred")
}

// parseUserID extracts and validates the userID route parameter, writing
// a 400 response when it is not a positive integer.
func parseUserID(rw *ResponseWriter, r *http.Request) (int, bool) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || userID <= 0 {
		rw.BadRequest("userID must be a positive integer")
		return 0, false
	}
	return userID, true
}
