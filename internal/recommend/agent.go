// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

package recommend

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tonearm/tonearm/internal/recommend/bandit"
)

// confidenceRampSteps is the interaction count at which the experience
// share of agent confidence saturates.
const confidenceRampSteps = 50

// stabilityWindow is how many recent rewards feed the stability share of
// agent confidence, and stabilityMinSamples is the sample count below
// which a fixed neutral value is used instead of an unstable estimate.
const (
	stabilityWindow     = 10
	stabilityMinSamples = 6
	neutralStability    = 0.5
)

// defaultAgentSeed seeds the fallback sampler when no seed is configured.
const defaultAgentSeed = 42

// strategyRule materializes an item-level recommendation for one strategy.
// Rules are total: every rule resolves to a valid Recommendation even when
// its primary data signal is empty.
type strategyRule func(userID int) Recommendation

// Agent orchestrates the perceive-decide-act-learn loop. It owns one UCB1
// bandit per encountered user, a bounded per-user interaction memory and
// the global aggregate counters. Safe for concurrent use.
type Agent struct {
	cfg     Config
	logger  zerolog.Logger
	data    DataProvider
	states  StatePerceiver
	rewards RewardShaper
	rules   map[Strategy]strategyRule

	// banditMu guards the bandits map; each bandit serializes its own
	// mutations internally.
	banditMu sync.RWMutex
	bandits  map[int]*bandit.UCB1

	// memMu guards the per-user interaction memory.
	memMu  sync.Mutex
	memory map[int][]InteractionRecord

	// statsMu guards the global aggregates. Always acquired after any
	// per-user lock, never before.
	statsMu         sync.Mutex
	totalLearned    int
	totalReward     float64
	strategyRewards map[Strategy][]float64
	sessionCounts   map[int]int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewAgent creates the agent. All collaborators are required; the strategy
// dispatch table is resolved once here, not per call.
func NewAgent(cfg Config, data DataProvider, states StatePerceiver, rewards RewardShaper, logger zerolog.Logger) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("data provider is required")
	}
	if states == nil {
		return nil, fmt.Errorf("state perceiver is required")
	}
	if rewards == nil {
		return nil, fmt.Errorf("reward shaper is required")
	}
	if data.InteractionCount() == 0 {
		return nil, fmt.Errorf("data provider has no interaction records")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = defaultAgentSeed
	}

	a := &Agent{
		cfg:             cfg,
		logger:          logger.With().Str("component", "agent").Logger(),
		data:            data,
		states:          states,
		rewards:         rewards,
		bandits:         make(map[int]*bandit.UCB1),
		memory:          make(map[int][]InteractionRecord),
		strategyRewards: make(map[Strategy][]float64),
		sessionCounts:   make(map[int]int),
		rng:             rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for fallback sampling
	}
	a.rules = map[Strategy]strategyRule{
		StrategySocial:      a.socialRule,
		StrategySemantic:    a.semanticRule,
		StrategyExploration: a.explorationRule,
		StrategyTraditional: a.traditionalRule,
	}

	a.logger.Info().Int("strategies", NumStrategies).Msg("recommendation agent initialized")
	return a, nil
}

// Recommend runs one perceive-decide-act cycle for the user. The optional
// reqContext carries caller hints; it is recorded for audit only. Returns
// ErrUserNotFound when the user is absent from the data source.
func (a *Agent) Recommend(userID int, reqContext map[string]any) (Recommendation, DecisionInfo, error) {
	if !a.data.UserExists(userID) {
		return Recommendation{}, DecisionInfo{}, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}

	state := a.states.State(userID)
	b := a.banditFor(userID, state)

	arm, kind := b.Select()
	strategy := Strategy(arm)

	rec := a.rules[strategy](userID)

	decision := DecisionInfo{
		Timestamp:       time.Now(),
		UserID:          userID,
		Strategy:        strategy,
		ActionKind:      string(kind),
		UserState:       state,
		Recommendation:  rec,
		AgentConfidence: a.agentConfidence(b),
	}

	a.logger.Debug().
		Int("user_id", userID).
		Stringer("strategy", strategy).
		Str("action_kind", string(kind)).
		Int("artist_id", rec.ArtistID).
		Interface("context", reqContext).
		Msg("recommendation generated")

	return rec, decision, nil
}

// Learn runs the learning step: it maps raw feedback to an outcome, shapes
// the reward against the user's current state and credits it to the arm
// the recommendation came from. Returns ErrUserNotFound for unknown users.
//
// The recommendation's strategy must belong to the arm set; anything else
// indicates a data-consistency bug between the caller and the core.
func (a *Agent) Learn(userID int, rec Recommendation, feedbackType string, feedbackValue *float64) (LearningInfo, error) {
	if !a.data.UserExists(userID) {
		return LearningInfo{}, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}
	if !rec.Strategy.Valid() {
		return LearningInfo{}, fmt.Errorf("strategy %d outside the arm set: data-consistency bug", rec.Strategy)
	}

	outcome := mapFeedback(feedbackType, feedbackValue)

	state := a.states.State(userID)
	rewardValue, components := a.rewards.Reward(rec.Strategy, outcome, state)

	b := a.banditFor(userID, state)
	b.Update(int(rec.Strategy), rewardValue)

	info := LearningInfo{
		Timestamp:     time.Now(),
		UserID:        userID,
		FeedbackType:  feedbackType,
		FeedbackValue: feedbackValue,
		Outcome:       outcome,
		Reward:        rewardValue,
		Components:    components,
		Strategy:      rec.Strategy,
	}

	a.statsMu.Lock()
	a.totalLearned++
	a.totalReward += rewardValue
	a.strategyRewards[rec.Strategy] = append(a.strategyRewards[rec.Strategy], rewardValue)
	a.sessionCounts[userID]++
	a.statsMu.Unlock()

	a.memMu.Lock()
	records := append(a.memory[userID], InteractionRecord{Recommendation: rec, Learning: info})
	if len(records) > a.cfg.MemoryWindow {
		records = records[len(records)-a.cfg.MemoryWindow:]
	}
	a.memory[userID] = records
	a.memMu.Unlock()

	a.logger.Debug().
		Int("user_id", userID).
		Stringer("strategy", rec.Strategy).
		Stringer("outcome", outcome).
		Float64("reward", rewardValue).
		Msg("feedback learned")

	return info, nil
}

// ResolveRecommendation reconstructs which recommendation a piece of
// feedback refers to when the caller supplies only an artist id. It scans
// the user's recent interaction memory newest-first; when no prior
// recommendation matches, it synthesizes one with the Traditional arm and
// neutral confidence.
func (a *Agent) ResolveRecommendation(userID, artistID int) Recommendation {
	a.memMu.Lock()
	records := a.memory[userID]
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Recommendation.ArtistID == artistID {
			rec := records[i].Recommendation
			a.memMu.Unlock()
			return rec
		}
	}
	a.memMu.Unlock()

	return Recommendation{
		ArtistID:   artistID,
		ArtistName: a.data.ArtistName(artistID),
		Strategy:   StrategyTraditional,
		Reason:     "Feedback submission",
		Confidence: 0.5,
		Timestamp:  time.Now(),
	}
}

// State returns the user's perception snapshot.
// Returns ErrUserNotFound for users absent from the data source.
func (a *Agent) State(userID int) (UserState, error) {
	if !a.data.UserExists(userID) {
		return UserState{}, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}
	return a.states.State(userID), nil
}

// AvailableUsers returns up to limit user ids known to the data source.
func (a *Agent) AvailableUsers(limit int) []int {
	return a.data.UserIDs(limit)
}

// ActiveBandits returns the number of users with an instantiated bandit.
func (a *Agent) ActiveBandits() int {
	a.banditMu.RLock()
	defer a.banditMu.RUnlock()
	return len(a.bandits)
}

// banditFor returns the user's bandit, creating it on first encounter.
// Creation is atomic and idempotent: under concurrent first access exactly
// one instance wins and all callers observe it. The confidence coefficient
// is decided once here from the state at creation time and never revisited.
func (a *Agent) banditFor(userID int, state UserState) *bandit.UCB1 {
	a.banditMu.RLock()
	b, ok := a.bandits[userID]
	a.banditMu.RUnlock()
	if ok {
		return b
	}

	a.banditMu.Lock()
	defer a.banditMu.Unlock()
	if b, ok := a.bandits[userID]; ok {
		return b
	}

	confidence := a.cfg.ConfidenceNewUser
	if state.OverallSophistication > a.cfg.SophisticationThreshold {
		confidence = a.cfg.ConfidenceExperiencedUser
	}
	b = bandit.New(NumStrategies, confidence, a.cfg.HistoryWindow)
	a.bandits[userID] = b

	a.logger.Info().
		Int("user_id", userID).
		Float64("confidence", confidence).
		Float64("sophistication", state.OverallSophistication).
		Msg("bandit created for user")

	return b
}

// agentConfidence scores how much the agent trusts its own decisions for
// one user: zero before any feedback, otherwise the mean of an experience
// ramp and a reward-stability term.
func (a *Agent) agentConfidence(b *bandit.UCB1) float64 {
	total := b.TotalSteps()
	if total == 0 {
		return 0
	}

	experience := float64(total) / confidenceRampSteps
	if experience > 1 {
		experience = 1
	}

	stability := neutralStability
	if recent := b.RecentRewards(stabilityWindow); len(recent) >= stabilityMinSamples {
		stability = 1 / (1 + popStdDev(recent))
	}

	return (experience + stability) / 2
}

// mapFeedback converts raw feedback into a categorical outcome.
// Quantitative types use their own thresholds; textual feedback passes
// through; anything unrecognized defaults to neutral.
func mapFeedback(feedbackType string, value *float64) Outcome {
	switch {
	case feedbackType == "explicit_rating" && value != nil:
		switch {
		case *value >= 0.7:
			return OutcomePositive
		case *value >= 0.4:
			return OutcomeNeutral
		default:
			return OutcomeNegative
		}
	case feedbackType == "implicit_behavior" && value != nil:
		switch {
		case *value > 0.7:
			return OutcomePositive
		case *value > 0.3:
			return OutcomeNeutral
		default:
			return OutcomeNegative
		}
	default:
		return ParseOutcome(feedbackType)
	}
}

// popStdDev is the population standard deviation.
func popStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// randIntn returns a uniform int in [0,n) from the agent's guarded source.
func (a *Agent) randIntn(n int) int {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.Intn(n)
}
