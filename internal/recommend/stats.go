// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

// stats.go - read-only projections over agent state.
package recommend

import (
	"sort"

	"github.com/tonearm/tonearm/internal/recommend/bandit"
)

// successThreshold is the reward above which a feedback event counts as a
// success in strategy statistics.
const successThreshold = 0.6

// Statistics returns the global projection over agent state. It tolerates
// an agent that has never seen a user or a feedback event.
func (a *Agent) Statistics() AgentStatistics {
	type userBandit struct {
		userID int
		b      *bandit.UCB1
	}

	a.banditMu.RLock()
	users := make([]userBandit, 0, len(a.bandits))
	for userID, b := range a.bandits {
		users = append(users, userBandit{userID: userID, b: b})
	}
	a.banditMu.RUnlock()

	a.statsMu.Lock()
	totalLearned := a.totalLearned
	totalReward := a.totalReward
	activeSessions := len(a.sessionCounts)
	perf := make(map[string]StrategyStats, len(a.strategyRewards))
	for strategy, rewards := range a.strategyRewards {
		if len(rewards) == 0 {
			continue
		}
		perf[strategy.String()] = summarizeRewards(rewards)
	}
	a.statsMu.Unlock()

	average := 0.0
	if totalLearned > 0 {
		average = totalReward / float64(totalLearned)
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		total := u.b.TotalSteps()
		if total == 0 {
			continue
		}
		summaries = append(summaries, UserSummary{
			UserID:            u.userID,
			TotalInteractions: total,
			PreferredStrategy: Strategy(u.b.BestArm()).String(),
			AgentConfidence:   a.agentConfidence(u.b),
			Sophistication:    a.states.State(u.userID).OverallSophistication,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalInteractions != summaries[j].TotalInteractions {
			return summaries[i].TotalInteractions > summaries[j].TotalInteractions
		}
		return summaries[i].UserID < summaries[j].UserID
	})
	if len(summaries) > a.cfg.TopUsersLimit {
		summaries = summaries[:a.cfg.TopUsersLimit]
	}

	return AgentStatistics{
		TotalUsers:           len(users),
		TotalRecommendations: totalLearned,
		AverageReward:        average,
		ActiveSessions:       activeSessions,
		StrategyPerformance:  perf,
		TopUsers:             summaries,
	}
}

// UserProfile returns the per-user projection. Users known to the data
// source but never seen by the agent get neutral defaults; unknown users
// get ErrUserNotFound. Two sequential calls with no intervening Learn
// return identical results.
func (a *Agent) UserProfile(userID int) (UserProfile, error) {
	state, err := a.State(userID)
	if err != nil {
		return UserProfile{}, err
	}

	a.banditMu.RLock()
	b := a.bandits[userID]
	a.banditMu.RUnlock()

	profile := UserProfile{
		UserID:            userID,
		PreferredStrategy: "None",
		Sophistication:    state.OverallSophistication,
		History:           []HistoryEntry{},
	}

	if b == nil {
		return profile, nil
	}

	profile.TotalInteractions = b.TotalSteps()
	profile.AgentConfidence = a.agentConfidence(b)
	if arm := b.BestArm(); arm >= 0 {
		profile.PreferredStrategy = Strategy(arm).String()
	}

	a.memMu.Lock()
	records := a.memory[userID]
	start := len(records) - a.cfg.ProfileHistoryLimit
	if start < 0 {
		start = 0
	}
	for _, rec := range records[start:] {
		profile.History = append(profile.History, HistoryEntry{
			Timestamp:  rec.Recommendation.Timestamp,
			ArtistID:   rec.Recommendation.ArtistID,
			ArtistName: rec.Recommendation.ArtistName,
			Strategy:   rec.Recommendation.Strategy.String(),
			Reward:     rec.Learning.Reward,
			Outcome:    rec.Learning.Outcome.String(),
		})
	}
	a.memMu.Unlock()

	return profile, nil
}

// summarizeRewards computes count/mean/stddev/success-rate for one strategy.
func summarizeRewards(rewards []float64) StrategyStats {
	var sum float64
	successes := 0
	for _, r := range rewards {
		sum += r
		if r > successThreshold {
			successes++
		}
	}

	return StrategyStats{
		Count:       len(rewards),
		AvgReward:   sum / float64(len(rewards)),
		StdReward:   popStdDev(rewards),
		SuccessRate: float64(successes) / float64(len(rewards)),
	}
}
