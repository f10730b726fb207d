// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// maxRequestBodyBytes caps request payloads; recommendation and feedback
// bodies are tiny, so anything larger is rejected.
const maxRequestBodyBytes = 64 * 1024

// RecommendationRequest is the payload for POST /api/v1/recommendations.
type RecommendationRequest struct {
	UserID int `json:"user_id" validate:"required,gt=0"`

	// Context carries optional client hints (session id, device, locale).
	// It is logged for offline analysis and does not affect the decision.
	Context map[string]interface{} `json:"context,omitempty"`
}

// FeedbackRequest is the payload for POST /api/v1/feedback.
type FeedbackRequest struct {
	UserID   int `json:"user_id" validate:"required,gt=0"`
	ArtistID int `json:"artist_id" validate:"required,gt=0"`

	FeedbackType string `json:"feedback_type" validate:"required,oneof=explicit_rating implicit_behavior textual_review"`

	// FeedbackValue is interpreted per feedback type; nil means the type's
	// neutral default applies.
	FeedbackValue *float64 `json:"feedback_value,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// decodeJSON decodes a request body into dst, rejecting unknown fields
// and oversized payloads.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}
