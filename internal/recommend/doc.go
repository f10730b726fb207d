// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

// Package recommend implements the online per-user decision core of Tonearm.
//
// The core closes a perceive-decide-act-learn loop for choosing among a
// small fixed set of recommendation strategies. Each user gets an
// independent UCB1 bandit over the strategy set; a perception module fuses
// listening, friendship and tagging signals into a bounded state vector,
// and a reward shaper converts categorical feedback into a weighted
// multi-component reward that trains the user's bandit.
//
// # Architecture
//
// The package defines the domain types and the Agent orchestrator. The
// leaf components live in subpackages and are wired in at the composition
// root through interfaces defined here, so this package has no dependency
// on any concrete storage or transport layer:
//
//   - bandit: the UCB1 selection and update algorithm
//   - perception: the state-vector derivation (StatePerceiver)
//   - reward: the multi-component reward shaping (RewardShaper)
//
// Data access goes through the DataProvider interface, implemented by the
// dataset package.
//
// # Concurrency
//
// The Agent is safe for concurrent use. Bandit creation is atomic and
// idempotent under concurrent first access for the same user; each bandit
// serializes its own updates; global aggregates sit behind a short-held
// lock acquired after any per-user work. A recommend and a learn call for
// the same user may interleave; the algorithm tolerates the resulting
// delayed reward attribution.
//
// # Lifetime
//
// All agent state is process-lifetime only. Bandits are created lazily on
// first encounter and never evicted or persisted; callers must not assume
// state survives a restart.
package recommend
