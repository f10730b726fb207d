// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

// Package bandit implements the UCB1 multi-armed bandit used for per-user
// strategy selection.
//
// The implementation is deliberately generic: arms are plain indices, so the
// package has no knowledge of recommendation strategies. A UCB1 instance is
// safe for concurrent use; Select and Update serialize on an internal lock
// and a single Update applies its count/sum/mean mutation atomically.
package bandit

import (
	"math"
	"sync"
)

// ActionKind classifies how an arm was chosen.
type ActionKind string

const (
	// ActionExploreUnplayed marks the forced round-robin warm-up phase:
	// every arm is played once, in ascending index order, before UCB
	// scoring begins.
	ActionExploreUnplayed ActionKind = "explore_unplayed"

	// ActionUCBOptimistic marks a selection by upper confidence bound.
	ActionUCBOptimistic ActionKind = "ucb_optimistic"
)

// Observation is one entry of a bandit's bounded history.
type Observation struct {
	// Step is the value of TotalSteps when the update was applied.
	Step int `json:"step"`

	// Arm is the updated arm index.
	Arm int `json:"arm"`

	// Reward is the reward that was credited.
	Reward float64 `json:"reward"`
}

// UCB1 is an upper-confidence-bound bandit over a fixed arm set.
//
// Selection returns the lowest-indexed unplayed arm until every arm has
// been played once, then scores each arm as
//
//	mean_i + c * sqrt(ln(totalSteps+1) / n_i)
//
// and returns the first maximum. The confidence coefficient c is fixed at
// construction and never adapted afterwards.
type UCB1 struct {
	numArms      int
	confidence   float64
	historyLimit int

	mu         sync.Mutex
	counts     []int
	rewards    []float64
	means      []float64
	history    []Observation
	totalSteps int
}

// Snapshot is a consistent read-only copy of a bandit's statistics.
type Snapshot struct {
	Counts     []int         `json:"arm_counts"`
	Means      []float64     `json:"arm_means"`
	TotalSteps int           `json:"total_steps"`
	Confidence float64       `json:"confidence"`
	History    []Observation `json:"history"`
}

// New creates a UCB1 bandit with numArms arms and the given confidence
// coefficient. historyLimit bounds the retained observation window; values
// below 1 fall back to 50.
func New(numArms int, confidence float64, historyLimit int) *UCB1 {
	if historyLimit < 1 {
		historyLimit = 50
	}
	return &UCB1{
		numArms:      numArms,
		confidence:   confidence,
		historyLimit: historyLimit,
		counts:       make([]int, numArms),
		rewards:      make([]float64, numArms),
		means:        make([]float64, numArms),
	}
}

// NumArms returns the cardinality of the arm set.
func (b *UCB1) NumArms() int {
	return b.numArms
}

// Confidence returns the fixed confidence coefficient.
func (b *UCB1) Confidence() float64 {
	return b.confidence
}

// Select chooses an arm. It does not mutate any statistics; the caller is
// expected to eventually credit the play through Update, though the two
// calls are not required to be paired atomically.
func (b *UCB1) Select() (int, ActionKind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 0; i < b.numArms; i++ {
		if b.counts[i] == 0 {
			return i, ActionExploreUnplayed
		}
	}

	best := 0
	bestScore := math.Inf(-1)
	for i := 0; i < b.numArms; i++ {
		bonus := b.confidence * math.Sqrt(math.Log(float64(b.totalSteps+1))/float64(b.counts[i]))
		if score := b.means[i] + bonus; score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, ActionUCBOptimistic
}

// Update credits reward to the given arm. The arm index must be valid;
// passing an out-of-range index is a caller bug and panics.
func (b *UCB1) Update(arm int, reward float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counts[arm]++
	b.rewards[arm] += reward
	b.means[arm] = b.rewards[arm] / float64(b.counts[arm])

	b.history = append(b.history, Observation{Step: b.totalSteps, Arm: arm, Reward: reward})
	if len(b.history) > b.historyLimit {
		b.history = b.history[len(b.history)-b.historyLimit:]
	}

	b.totalSteps++
}

// TotalSteps returns the number of updates applied so far.
func (b *UCB1) TotalSteps() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalSteps
}

// BestArm returns the arm with the highest observed mean, first-max on
// ties. It returns -1 when no update has been applied yet.
func (b *UCB1) BestArm() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.totalSteps == 0 {
		return -1
	}
	best := 0
	for i := 1; i < b.numArms; i++ {
		if b.means[i] > b.means[best] {
			best = i
		}
	}
	return best
}

// RecentRewards returns up to n most recent rewards, oldest first.
func (b *UCB1) RecentRewards(n int) []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := len(b.history) - n
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, len(b.history)-start)
	for _, obs := range b.history[start:] {
		out = append(out, obs.Reward)
	}
	return out
}

// Snapshot returns a consistent copy of the bandit's statistics.
func (b *UCB1) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{
		Counts:     make([]int, b.numArms),
		Means:      make([]float64, b.numArms),
		TotalSteps: b.totalSteps,
		Confidence: b.confidence,
		History:    make([]Observation, len(b.history)),
	}
	copy(snap.Counts, b.counts)
	copy(snap.Means, b.means)
	copy(snap.History, b.history)
	return snap
}
