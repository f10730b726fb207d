// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

package recommend

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tonearm/tonearm/internal/recommend/bandit"
)

// fakeData is an in-memory DataProvider for tests.
type fakeData struct {
	artists      map[int]string
	interactions []Interaction
	friends      map[int][]int
	userTags     map[int][]int
	tagArtists   map[int][]int // tagID -> artistID per assignment
	top          []int
}

// newFakeData builds a small world: users 1-3, artists 10-14.
//   - user 1: plays 10 and 11, friends with 2, tags artist 12 with tag 7
//   - user 2: plays 12 heavily
//   - user 3: plays 13
func newFakeData() *fakeData {
	return &fakeData{
		artists: map[int]string{
			10: "Arcadia",
			11: "Basalt",
			12: "Cinder",
			13: "Driftwood",
			14: "Emberline",
		},
		interactions: []Interaction{
			{UserID: 1, ArtistID: 10, Weight: 100},
			{UserID: 1, ArtistID: 11, Weight: 50},
			{UserID: 2, ArtistID: 12, Weight: 500},
			{UserID: 3, ArtistID: 13, Weight: 20},
		},
		friends: map[int][]int{
			1: {2},
			2: {1},
		},
		userTags: map[int][]int{
			1: {7},
		},
		tagArtists: map[int][]int{
			7: {12, 12, 14},
		},
		top: []int{12, 10, 11, 13},
	}
}

func (f *fakeData) UserExists(userID int) bool {
	for _, in := range f.interactions {
		if in.UserID == userID {
			return true
		}
	}
	return false
}

func (f *fakeData) ArtistName(artistID int) string {
	if name, ok := f.artists[artistID]; ok {
		return name
	}
	return "Unknown"
}

func (f *fakeData) ArtistIDs() []int {
	ids := make([]int, 0, len(f.artists))
	for id := range f.artists {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (f *fakeData) UserIDs(limit int) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, in := range f.interactions {
		if _, ok := seen[in.UserID]; !ok {
			seen[in.UserID] = struct{}{}
			ids = append(ids, in.UserID)
		}
	}
	sort.Ints(ids)
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}

func (f *fakeData) UserInteractions(userID int) []Interaction {
	var out []Interaction
	for _, in := range f.interactions {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out
}

func (f *fakeData) TopArtists() []int {
	return f.top
}

func (f *fakeData) UserFriends(userID int) []int {
	return f.friends[userID]
}

func (f *fakeData) FriendInteractions(userID int) []Interaction {
	var out []Interaction
	for _, friendID := range f.friends[userID] {
		out = append(out, f.UserInteractions(friendID)...)
	}
	return out
}

func (f *fakeData) UserTagIDs(userID int) []int {
	return f.userTags[userID]
}

func (f *fakeData) ArtistTagCounts(tagIDs []int) map[int]int {
	counts := make(map[int]int)
	for _, tagID := range tagIDs {
		for _, artistID := range f.tagArtists[tagID] {
			counts[artistID]++
		}
	}
	return counts
}

func (f *fakeData) InteractionCount() int {
	return len(f.interactions)
}

func (f *fakeData) InteractionAt(i int) Interaction {
	return f.interactions[i]
}

// fixedStates returns a constant state per user.
type fixedStates struct {
	states map[int]UserState
}

func (s *fixedStates) State(userID int) UserState {
	return s.states[userID]
}

// fixedRewards returns a constant reward.
type fixedRewards struct {
	reward float64
}

func (r *fixedRewards) Reward(strategy Strategy, outcome Outcome, state UserState) (float64, RewardComponents) {
	return r.reward, RewardComponents{Satisfaction: r.reward}
}

func newTestAgent(t *testing.T, rewardValue float64) *Agent {
	t.Helper()

	states := &fixedStates{states: map[int]UserState{
		1: {UserID: 1, OverallSophistication: 0.2},
		2: {UserID: 2, OverallSophistication: 0.9},
	}}

	a, err := NewAgent(DefaultConfig(), newFakeData(), states, &fixedRewards{reward: rewardValue}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	return a
}

func TestNewAgentValidation(t *testing.T) {
	states := &fixedStates{states: map[int]UserState{}}
	rewards := &fixedRewards{}

	tests := []struct {
		name    string
		make    func() (*Agent, error)
		wantErr bool
	}{
		{
			name: "valid",
			make: func() (*Agent, error) {
				return NewAgent(DefaultConfig(), newFakeData(), states, rewards, zerolog.Nop())
			},
		},
		{
			name: "nil data provider",
			make: func() (*Agent, error) {
				return NewAgent(DefaultConfig(), nil, states, rewards, zerolog.Nop())
			},
			wantErr: true,
		},
		{
			name: "nil perceiver",
			make: func() (*Agent, error) {
				return NewAgent(DefaultConfig(), newFakeData(), nil, rewards, zerolog.Nop())
			},
			wantErr: true,
		},
		{
			name: "nil shaper",
			make: func() (*Agent, error) {
				return NewAgent(DefaultConfig(), newFakeData(), states, nil, zerolog.Nop())
			},
			wantErr: true,
		},
		{
			name: "empty interaction data",
			make: func() (*Agent, error) {
				data := newFakeData()
				data.interactions = nil
				return NewAgent(DefaultConfig(), data, states, rewards, zerolog.Nop())
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.make()
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecommendUnknownUser(t *testing.T) {
	a := newTestAgent(t, 0.5)

	_, _, err := a.Recommend(999, nil)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestRecommendWarmUpCyclesStrategies(t *testing.T) {
	a := newTestAgent(t, 0.5)

	// With no feedback between calls the bandit stays in warm-up and must
	// offer each strategy once, in arm order, when learn follows each pick.
	for arm := 0; arm < NumStrategies; arm++ {
		rec, decision, err := a.Recommend(1, nil)
		if err != nil {
			t.Fatalf("recommend %d: %v", arm, err)
		}
		if decision.ActionKind != "explore_unplayed" {
			t.Errorf("recommend %d: action kind = %q, want explore_unplayed", arm, decision.ActionKind)
		}
		if got := int(decision.Strategy); got != arm {
			t.Errorf("recommend %d: strategy arm = %d, want %d", arm, got, arm)
		}
		if rec.ArtistID == 0 {
			t.Errorf("recommend %d: missing artist", arm)
		}

		if _, err := a.Learn(1, rec, "positive", nil); err != nil {
			t.Fatalf("learn %d: %v", arm, err)
		}
	}

	_, decision, err := a.Recommend(1, nil)
	if err != nil {
		t.Fatalf("post warm-up recommend: %v", err)
	}
	if decision.ActionKind != "ucb_optimistic" {
		t.Errorf("post warm-up action kind = %q, want ucb_optimistic", decision.ActionKind)
	}
}

func TestRecommendDecisionInfo(t *testing.T) {
	a := newTestAgent(t, 0.5)

	rec, decision, err := a.Recommend(1, map[string]any{"session": "abc"})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}

	if decision.UserID != 1 {
		t.Errorf("decision user = %d, want 1", decision.UserID)
	}
	if decision.Recommendation != rec {
		t.Errorf("decision recommendation %+v != returned %+v", decision.Recommendation, rec)
	}
	if decision.AgentConfidence != 0 {
		t.Errorf("confidence before any feedback = %v, want 0", decision.AgentConfidence)
	}
	if decision.UserState.UserID != 1 {
		t.Errorf("state user = %d, want 1", decision.UserState.UserID)
	}
}

func TestLearnUnknownUser(t *testing.T) {
	a := newTestAgent(t, 0.5)

	_, err := a.Learn(999, Recommendation{Strategy: StrategyTraditional}, "positive", nil)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestLearnRejectsInvalidStrategy(t *testing.T) {
	a := newTestAgent(t, 0.5)

	_, err := a.Learn(1, Recommendation{Strategy: Strategy(17)}, "positive", nil)
	if err == nil {
		t.Fatal("expected error for out-of-range strategy")
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Fatal("invalid strategy must not map to ErrUserNotFound")
	}
}

func TestLearnUpdatesBanditAndMemory(t *testing.T) {
	a := newTestAgent(t, 0.9)

	rec, _, err := a.Recommend(1, nil)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}

	info, err := a.Learn(1, rec, "positive", nil)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if info.Reward != 0.9 {
		t.Errorf("reward = %v, want 0.9", info.Reward)
	}
	if info.Outcome != OutcomePositive {
		t.Errorf("outcome = %v, want positive", info.Outcome)
	}
	if info.Strategy != rec.Strategy {
		t.Errorf("strategy = %v, want %v", info.Strategy, rec.Strategy)
	}

	// The learned interaction must now be resolvable by artist id.
	resolved := a.ResolveRecommendation(1, rec.ArtistID)
	if resolved != rec {
		t.Errorf("resolved %+v, want original %+v", resolved, rec)
	}
}

func TestResolveRecommendationSynthesizes(t *testing.T) {
	a := newTestAgent(t, 0.5)

	rec := a.ResolveRecommendation(1, 13)
	if rec.ArtistID != 13 {
		t.Errorf("artist = %d, want 13", rec.ArtistID)
	}
	if rec.Strategy != StrategyTraditional {
		t.Errorf("strategy = %v, want traditional", rec.Strategy)
	}
	if rec.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", rec.Confidence)
	}
	if rec.ArtistName != "Driftwood" {
		t.Errorf("artist name = %q, want Driftwood", rec.ArtistName)
	}
}

func TestResolveRecommendationPrefersNewest(t *testing.T) {
	a := newTestAgent(t, 0.5)

	older := Recommendation{ArtistID: 10, ArtistName: "Arcadia", Strategy: StrategySocial, Confidence: 0.8}
	newer := Recommendation{ArtistID: 10, ArtistName: "Arcadia", Strategy: StrategyExploration, Confidence: 0.6}

	if _, err := a.Learn(1, older, "positive", nil); err != nil {
		t.Fatalf("learn older: %v", err)
	}
	if _, err := a.Learn(1, newer, "positive", nil); err != nil {
		t.Fatalf("learn newer: %v", err)
	}

	if got := a.ResolveRecommendation(1, 10); got.Strategy != StrategyExploration {
		t.Errorf("resolved strategy = %v, want the newest (exploration)", got.Strategy)
	}
}

func TestMemoryWindowBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemoryWindow = 3

	states := &fixedStates{states: map[int]UserState{1: {UserID: 1}}}
	a, err := NewAgent(cfg, newFakeData(), states, &fixedRewards{reward: 0.5}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}

	for i := 0; i < 10; i++ {
		rec := Recommendation{ArtistID: 10 + i, Strategy: StrategyTraditional}
		if _, err := a.Learn(1, rec, "neutral", nil); err != nil {
			t.Fatalf("learn %d: %v", i, err)
		}
	}

	a.memMu.Lock()
	got := len(a.memory[1])
	a.memMu.Unlock()
	if got != 3 {
		t.Errorf("memory length = %d, want 3", got)
	}
}

func TestBanditConfidenceBySophistication(t *testing.T) {
	a := newTestAgent(t, 0.5)

	// User 1 (sophistication 0.2) gets the aggressive coefficient, user 2
	// (0.9) the conservative one.
	b1 := a.banditFor(1, a.states.State(1))
	b2 := a.banditFor(2, a.states.State(2))

	if got := b1.Confidence(); got != 2.0 {
		t.Errorf("new-user confidence = %v, want 2.0", got)
	}
	if got := b2.Confidence(); got != 1.2 {
		t.Errorf("experienced-user confidence = %v, want 1.2", got)
	}
}

func TestConcurrentFirstAccessCreatesOneBandit(t *testing.T) {
	a := newTestAgent(t, 0.5)

	const goroutines = 16

	start := make(chan struct{})
	instances := make(chan *bandit.UCB1, goroutines)
	var wg sync.WaitGroup

	// All goroutines race the first banditFor call for the same user.
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			instances <- a.banditFor(1, a.states.State(1))
		}()
	}
	close(start)
	wg.Wait()
	close(instances)

	first := <-instances
	for b := range instances {
		if b != first {
			t.Fatal("concurrent first access produced distinct bandit instances")
		}
	}
	if got := a.ActiveBandits(); got != 1 {
		t.Errorf("active bandits = %d, want 1", got)
	}
}

func TestConcurrentRecommendAndLearn(t *testing.T) {
	a := newTestAgent(t, 0.5)

	const (
		goroutines = 8
		iterations = 25
	)

	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				rec, _, err := a.Recommend(1, nil)
				if err != nil {
					errCh <- err
					return
				}
				if _, err := a.Learn(1, rec, "positive", nil); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatalf("concurrent cycle: %v", err)
	}

	if got := a.ActiveBandits(); got != 1 {
		t.Errorf("active bandits = %d, want 1", got)
	}

	// Every learn landed on the single shared bandit.
	b := a.banditFor(1, a.states.State(1))
	if got := b.TotalSteps(); got != goroutines*iterations {
		t.Errorf("total steps = %d, want %d", got, goroutines*iterations)
	}

	stats := a.Statistics()
	if stats.TotalRecommendations != goroutines*iterations {
		t.Errorf("total recommendations = %d, want %d", stats.TotalRecommendations, goroutines*iterations)
	}
}

func TestBanditForIsStable(t *testing.T) {
	a := newTestAgent(t, 0.5)

	state := a.states.State(1)
	if a.banditFor(1, state) != a.banditFor(1, state) {
		t.Fatal("banditFor returned different instances for the same user")
	}
}

func TestActiveBandits(t *testing.T) {
	a := newTestAgent(t, 0.5)

	if got := a.ActiveBandits(); got != 0 {
		t.Errorf("active bandits = %d, want 0", got)
	}

	if _, _, err := a.Recommend(1, nil); err != nil {
		t.Fatalf("recommend 1: %v", err)
	}
	if _, _, err := a.Recommend(2, nil); err != nil {
		t.Fatalf("recommend 2: %v", err)
	}
	if _, _, err := a.Recommend(1, nil); err != nil {
		t.Fatalf("recommend 1 again: %v", err)
	}

	if got := a.ActiveBandits(); got != 2 {
		t.Errorf("active bandits = %d, want 2", got)
	}
}

func TestAvailableUsers(t *testing.T) {
	a := newTestAgent(t, 0.5)

	if got := a.AvailableUsers(0); len(got) != 3 {
		t.Errorf("AvailableUsers(0) = %v, want 3 ids", got)
	}
	if got := a.AvailableUsers(2); len(got) != 2 {
		t.Errorf("AvailableUsers(2) = %v, want 2 ids", got)
	}
}

func TestMapFeedback(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		ftype string
		value *float64
		want  Outcome
	}{
		{"explicit high", "explicit_rating", ptr(0.7), OutcomePositive},
		{"explicit mid", "explicit_rating", ptr(0.4), OutcomeNeutral},
		{"explicit low", "explicit_rating", ptr(0.39), OutcomeNegative},
		{"explicit nil value", "explicit_rating", nil, OutcomeNeutral},
		{"implicit high", "implicit_behavior", ptr(0.71), OutcomePositive},
		{"implicit boundary not positive", "implicit_behavior", ptr(0.7), OutcomeNeutral},
		{"implicit boundary not neutral", "implicit_behavior", ptr(0.3), OutcomeNegative},
		{"textual positive", "positive", nil, OutcomePositive},
		{"textual negative", "negative", nil, OutcomeNegative},
		{"unknown type", "shrug", nil, OutcomeNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapFeedback(tt.ftype, tt.value); got != tt.want {
				t.Errorf("mapFeedback(%q, %v) = %v, want %v", tt.ftype, tt.value, got, tt.want)
			}
		})
	}
}

func TestAgentConfidenceRamp(t *testing.T) {
	a := newTestAgent(t, 0.5)

	rec := Recommendation{ArtistID: 10, Strategy: StrategyTraditional}

	// After 5 identical rewards: experience 5/50 = 0.1, stability for a
	// zero-variance window is 1/(1+0) = 1. Mean = 0.55. Below 6 samples
	// the neutral 0.5 stability applies instead: mean = 0.3.
	for i := 0; i < 5; i++ {
		if _, err := a.Learn(1, rec, "neutral", nil); err != nil {
			t.Fatalf("learn: %v", err)
		}
	}
	b := a.banditFor(1, a.states.State(1))
	if got, want := a.agentConfidence(b), (0.1+0.5)/2; !floatNear(got, want) {
		t.Errorf("confidence at 5 samples = %v, want %v", got, want)
	}

	if _, err := a.Learn(1, rec, "neutral", nil); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if got, want := a.agentConfidence(b), (0.12+1.0)/2; !floatNear(got, want) {
		t.Errorf("confidence at 6 samples = %v, want %v", got, want)
	}
}

func floatNear(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
