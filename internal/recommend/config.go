// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

package recommend

import "fmt"

// Config contains tuning parameters for the recommendation agent.
type Config struct {
	// ConfidenceNewUser is the UCB confidence coefficient given to bandits
	// created for users at or below the sophistication threshold.
	// Wider bound, more exploration.
	ConfidenceNewUser float64 `json:"confidence_new_user" koanf:"confidence_new_user"`

	// ConfidenceExperiencedUser is the coefficient for users above the
	// threshold. Narrower bound, more exploitation.
	ConfidenceExperiencedUser float64 `json:"confidence_experienced_user" koanf:"confidence_experienced_user"`

	// SophisticationThreshold splits new from experienced users.
	// The decision is made once, at first encounter.
	SophisticationThreshold float64 `json:"sophistication_threshold" koanf:"sophistication_threshold"`

	// HistoryWindow bounds each bandit's retained observation history.
	HistoryWindow int `json:"history_window" koanf:"history_window"`

	// MemoryWindow bounds the per-user interaction memory used for
	// reporting and feedback reconciliation.
	MemoryWindow int `json:"memory_window" koanf:"memory_window"`

	// ProfileHistoryLimit caps the history rows surfaced in a user profile.
	ProfileHistoryLimit int `json:"profile_history_limit" koanf:"profile_history_limit"`

	// TopUsersLimit caps the top-user list in agent statistics.
	TopUsersLimit int `json:"top_users_limit" koanf:"top_users_limit"`

	// NoiseSigma is the standard deviation of the reward noise term.
	NoiseSigma float64 `json:"noise_sigma" koanf:"noise_sigma"`

	// Seed seeds the fallback sampler and the reward noise source. Zero
	// selects a fixed default so behavior stays reproducible by default.
	Seed int64 `json:"seed" koanf:"seed"`
}

// DefaultConfig returns the agent defaults used in production.
func DefaultConfig() Config {
	return Config{
		ConfidenceNewUser:         2.0,
		ConfidenceExperiencedUser: 1.2,
		SophisticationThreshold:   0.7,
		HistoryWindow:             50,
		MemoryWindow:              50,
		ProfileHistoryLimit:       10,
		TopUsersLimit:             10,
		NoiseSigma:                0.05,
		Seed:                      0,
	}
}

// Validate checks the configuration for values the agent cannot run with.
func (c Config) Validate() error {
	if c.ConfidenceNewUser <= 0 {
		return fmt.Errorf("confidence_new_user must be positive, got %f", c.ConfidenceNewUser)
	}
	if c.ConfidenceExperiencedUser <= 0 {
		return fmt.Errorf("confidence_experienced_user must be positive, got %f", c.ConfidenceExperiencedUser)
	}
	if c.SophisticationThreshold < 0 || c.SophisticationThreshold > 1 {
		return fmt.Errorf("sophistication_threshold must be in [0,1], got %f", c.SophisticationThreshold)
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("history_window must be positive, got %d", c.HistoryWindow)
	}
	if c.MemoryWindow <= 0 {
		return fmt.Errorf("memory_window must be positive, got %d", c.MemoryWindow)
	}
	if c.ProfileHistoryLimit <= 0 {
		return fmt.Errorf("profile_history_limit must be positive, got %d", c.ProfileHistoryLimit)
	}
	if c.TopUsersLimit <= 0 {
		return fmt.Errorf("top_users_limit must be positive, got %d", c.TopUsersLimit)
	}
	if c.NoiseSigma < 0 || c.NoiseSigma >= 1 {
		return fmt.Errorf("noise_sigma must be in [0,1), got %f", c.NoiseSigma)
	}
	return nil
}
