// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

// Package reward shapes categorical feedback into scalar rewards.
//
// A Shaper maps (strategy, outcome, user state) to a reward in [0,1] built
// from four weighted components: satisfaction, discovery, social alignment
// and engagement. A zero-mean Gaussian noise term makes live rewards
// non-deterministic by design; tests inject a fixed noise source through
// the NoiseSource interface to get reproducible values.
package reward

import (
	"math/rand"
	"sync"

	"github.com/tonearm/tonearm/internal/recommend"
)

// Component weights. Fixed, sum to 1.0.
const (
	weightSatisfaction    = 0.4
	weightDiscovery       = 0.3
	weightSocialAlignment = 0.2
	weightEngagement      = 0.1
)

// DefaultNoiseSigma is the standard deviation of the injected reward noise.
const DefaultNoiseSigma = 0.05

// defaultSeed keeps reward noise reproducible when no seed is configured.
const defaultSeed = 42

// NoiseSource supplies one zero-mean noise sample per reward computation.
// Implementations must be safe for concurrent use.
type NoiseSource interface {
	Sample() float64
}

// GaussianNoise is a seeded Gaussian NoiseSource.
type GaussianNoise struct {
	sigma float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGaussianNoise creates a Gaussian noise source with the given standard
// deviation. A zero seed selects the fixed default seed.
func NewGaussianNoise(sigma float64, seed int64) *GaussianNoise {
	if seed == 0 {
		seed = defaultSeed
	}
	return &GaussianNoise{
		sigma: sigma,
		rng:   rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for reward jitter
	}
}

// Sample returns one zero-mean Gaussian sample.
func (g *GaussianNoise) Sample() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.NormFloat64() * g.sigma
}

// NoNoise is a NoiseSource that always returns zero, for deterministic tests.
type NoNoise struct{}

// Sample returns zero.
func (NoNoise) Sample() float64 { return 0 }

// Shaper computes multi-component rewards. Stateless across calls except
// for the noise source; safe for concurrent use.
type Shaper struct {
	noise NoiseSource
}

// NewShaper creates a reward shaper. A nil noise source falls back to
// Gaussian noise with the default sigma and seed.
func NewShaper(noise NoiseSource) *Shaper {
	if noise == nil {
		noise = NewGaussianNoise(DefaultNoiseSigma, 0)
	}
	return &Shaper{noise: noise}
}

// Reward computes the shaped reward and its components.
//
// Each component scales the outcome's base reward by a strategy- and
// state-dependent bonus; the final reward is the weighted component sum
// plus one noise sample, clamped to [0,1].
func (s *Shaper) Reward(strategy recommend.Strategy, outcome recommend.Outcome, state recommend.UserState) (float64, recommend.RewardComponents) {
	base := outcome.BaseReward()

	discoveryBonus := 0.6 + 0.2*state.MusicDiversity
	if strategy == recommend.StrategyExploration {
		discoveryBonus = 0.8 + 0.2*state.MusicDiversity
	}

	socialBonus := 0.5 + 0.2*state.SocialConnectivity
	if strategy == recommend.StrategySocial {
		socialBonus = 0.7 + 0.3*state.SocialConnectivity
	}

	components := recommend.RewardComponents{
		Satisfaction:    base * (0.7 + 0.3*state.MusicEngagement),
		Discovery:       base * discoveryBonus,
		SocialAlignment: base * socialBonus,
		Engagement:      base * (0.6 + 0.4*state.OverallSophistication),
	}

	total := components.Satisfaction*weightSatisfaction +
		components.Discovery*weightDiscovery +
		components.SocialAlignment*weightSocialAlignment +
		components.Engagement*weightEngagement

	total += s.noise.Sample()
	if total < 0 {
		total = 0
	}
	if total > 1 {
		total = 1
	}

	return total, components
}
