// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

// Package metrics provides Prometheus instrumentation for the
// recommendation engine and the HTTP API. All collectors are registered
// with the default registry via promauto and exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tonearm_recommendations_total",
			Help: "Total number of recommendations served",
		},
		[]string{"strategy", "action"}, // action: "explore_unplayed", "ucb_optimistic"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tonearm_recommendation_duration_seconds",
			Help:    "Time spent producing a single recommendation",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	ActiveBandits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tonearm_active_bandits",
			Help: "Number of users with an instantiated bandit",
		},
	)

	// Feedback Metrics
	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tonearm_feedback_total",
			Help: "Total number of feedback submissions processed",
		},
		[]string{"feedback_type", "outcome"}, // outcome: "positive", "neutral", "negative"
	)

	RewardObserved = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tonearm_reward_observed",
			Help:    "Distribution of shaped rewards fed to the bandits",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tonearm_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tonearm_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tonearm_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Dataset Metrics
	DatasetRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tonearm_dataset_records",
			Help: "Number of records loaded per source file kind",
		},
		[]string{"kind"}, // "artists", "interactions", "users", "tags"
	)

	DatasetSkippedRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tonearm_dataset_skipped_rows",
			Help: "Malformed data rows discarded at load time",
		},
	)
)

// RecordRecommendation records one served recommendation.
func RecordRecommendation(strategy, action string, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(strategy, action).Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordFeedback records one processed feedback submission.
func RecordFeedback(feedbackType, outcome string, reward float64) {
	FeedbackTotal.WithLabelValues(feedbackType, outcome).Inc()
	RewardObserved.Observe(reward)
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDatasetLoad publishes the record counts observed at startup.
func RecordDatasetLoad(artists, interactions, users, tags, skipped int) {
	DatasetRecords.WithLabelValues("artists").Set(float64(artists))
	DatasetRecords.WithLabelValues("interactions").Set(float64(interactions))
	DatasetRecords.WithLabelValues("users").Set(float64(users))
	DatasetRecords.WithLabelValues("tags").Set(float64(tags))
	DatasetSkippedRows.Set(float64(skipped))
}
