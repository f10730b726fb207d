// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

package recommend

import (
	"fmt"
	"strings"
	"time"
)

// Strategy identifies one recommendation strategy in the agent's fixed arm set.
// The set is ordered and immutable for the process lifetime; the integer value
// of a Strategy is its arm index in every per-user bandit.
type Strategy int

const (
	// StrategySocial recommends what is popular among the user's friends.
	StrategySocial Strategy = iota
	// StrategySemantic recommends artists matching the user's tag usage.
	StrategySemantic
	// StrategyExploration recommends artists the user has never played.
	StrategyExploration
	// StrategyTraditional recommends globally popular artists the user
	// has not played yet.
	StrategyTraditional

	// NumStrategies is the cardinality of the arm set.
	NumStrategies = 4
)

// String returns the stable display name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategySocial:
		return "Social Influence"
	case StrategySemantic:
		return "Semantic Coherence"
	case StrategyExploration:
		return "Exploration"
	case StrategyTraditional:
		return "Traditional CF"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a member of the arm set.
func (s Strategy) Valid() bool {
	return s >= StrategySocial && s < NumStrategies
}

// ParseStrategy resolves a display name back to its Strategy.
// The second return value is false for names outside the arm set.
func ParseStrategy(name string) (Strategy, bool) {
	for s := StrategySocial; s < NumStrategies; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Strategies returns the ordered arm set.
func Strategies() []Strategy {
	return []Strategy{StrategySocial, StrategySemantic, StrategyExploration, StrategyTraditional}
}

// MarshalJSON encodes the strategy as its display name.
func (s Strategy) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a display name into a Strategy.
func (s *Strategy) UnmarshalJSON(data []byte) error {
	name := strings.Trim(string(data), `"`)
	parsed, ok := ParseStrategy(name)
	if !ok {
		return fmt.Errorf("unknown strategy %q", name)
	}
	*s = parsed
	return nil
}

// Outcome is the categorical feedback bucket derived from raw feedback.
type Outcome int

const (
	// OutcomeNeutral is the default bucket for unrecognized feedback.
	OutcomeNeutral Outcome = iota
	// OutcomePositive indicates the user liked the recommendation.
	OutcomePositive
	// OutcomeNegative indicates the user disliked the recommendation.
	OutcomeNegative
)

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePositive:
		return "positive"
	case OutcomeNegative:
		return "negative"
	default:
		return "neutral"
	}
}

// BaseReward returns the base reward for the outcome before shaping.
func (o Outcome) BaseReward() float64 {
	switch o {
	case OutcomePositive:
		return 0.8
	case OutcomeNegative:
		return 0.2
	default:
		return 0.5
	}
}

// MarshalJSON encodes the outcome as its wire name.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.String() + `"`), nil
}

// UnmarshalJSON decodes a wire name into an Outcome.
// Unrecognized names map to neutral, matching ParseOutcome.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	*o = ParseOutcome(strings.Trim(string(data), `"`))
	return nil
}

// ParseOutcome maps a textual outcome to its bucket.
// Unrecognized values map to neutral, never an error.
func ParseOutcome(s string) Outcome {
	switch s {
	case "positive":
		return OutcomePositive
	case "negative":
		return OutcomeNegative
	default:
		return OutcomeNeutral
	}
}

// UserState is a per-user behavioral snapshot. All fields are bounded
// to [0,1]. It is recomputed from precomputed aggregates on every
// perception request and never cached across calls.
type UserState struct {
	UserID int `json:"user_id"`

	// MusicEngagement is total play weight, normalized.
	MusicEngagement float64 `json:"music_engagement"`

	// MusicDiversity is the count of distinct artists played, normalized.
	MusicDiversity float64 `json:"music_diversity"`

	// MusicIntensity is the average play weight per artist, normalized.
	MusicIntensity float64 `json:"music_intensity"`

	// SocialConnectivity is the friend count, normalized.
	SocialConnectivity float64 `json:"social_connectivity"`

	// SocialAlignment is the Jaccard overlap between the user's artist set
	// and the union of their friends' artist sets.
	SocialAlignment float64 `json:"social_alignment"`

	// SemanticActivity is the total number of tag assignments, normalized.
	SemanticActivity float64 `json:"semantic_activity"`

	// SemanticDiversity is the count of distinct tags used, normalized.
	SemanticDiversity float64 `json:"semantic_diversity"`

	// OverallSophistication is the mean of MusicDiversity,
	// SocialConnectivity and SemanticDiversity. The engagement and
	// intensity signals feed reward shaping but deliberately not this
	// composite; it drives only the bandit's exploration aggressiveness.
	OverallSophistication float64 `json:"overall_sophistication"`
}

// Recommendation is an immutable item-level recommendation.
type Recommendation struct {
	ArtistID   int       `json:"artist_id"`
	ArtistName string    `json:"artist_name"`
	Strategy   Strategy  `json:"strategy"`
	Reason     string    `json:"reason"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// DecisionInfo is the audit record produced alongside a Recommendation.
type DecisionInfo struct {
	Timestamp       time.Time      `json:"timestamp"`
	UserID          int            `json:"user_id"`
	Strategy        Strategy       `json:"strategy"`
	ActionKind      string         `json:"action_kind"`
	UserState       UserState      `json:"user_state"`
	Recommendation  Recommendation `json:"recommendation"`
	AgentConfidence float64        `json:"agent_confidence"`
}

// RewardComponents is the additive breakdown of a shaped reward.
// The component weights are fixed and sum to 1.0.
type RewardComponents struct {
	Satisfaction    float64 `json:"satisfaction"`
	Discovery       float64 `json:"discovery"`
	SocialAlignment float64 `json:"social_alignment"`
	Engagement      float64 `json:"engagement"`
}

// LearningInfo is the audit record produced by a feedback update.
type LearningInfo struct {
	Timestamp     time.Time        `json:"timestamp"`
	UserID        int              `json:"user_id"`
	FeedbackType  string           `json:"feedback_type"`
	FeedbackValue *float64         `json:"feedback_value,omitempty"`
	Outcome       Outcome          `json:"outcome"`
	Reward        float64          `json:"reward"`
	Components    RewardComponents `json:"reward_components"`
	Strategy      Strategy         `json:"strategy"`
}

// InteractionRecord pairs a recommendation with the learning outcome of its
// feedback. The agent retains a bounded window of these per user for
// reporting and for reconciling feedback that references only an artist id.
type InteractionRecord struct {
	Recommendation Recommendation `json:"recommendation"`
	Learning       LearningInfo   `json:"learning"`
}

// Interaction is one user-artist listening record.
type Interaction struct {
	UserID   int `json:"user_id"`
	ArtistID int `json:"artist_id"`
	Weight   int `json:"weight"`
}

// Friendship is one directed friendship edge.
type Friendship struct {
	UserID   int `json:"user_id"`
	FriendID int `json:"friend_id"`
}

// TagAssignment records a user tagging an artist with a tag.
type TagAssignment struct {
	UserID   int `json:"user_id"`
	ArtistID int `json:"artist_id"`
	TagID    int `json:"tag_id"`
}

// StrategyStats summarizes observed rewards for one strategy.
// Success means reward > 0.6.
type StrategyStats struct {
	Count       int     `json:"count"`
	AvgReward   float64 `json:"avg_reward"`
	StdReward   float64 `json:"std_reward"`
	SuccessRate float64 `json:"success_rate"`
}

// UserSummary is a compact per-user view used in agent statistics.
type UserSummary struct {
	UserID            int     `json:"user_id"`
	TotalInteractions int     `json:"total_interactions"`
	PreferredStrategy string  `json:"preferred_strategy"`
	AgentConfidence   float64 `json:"agent_confidence"`
	Sophistication    float64 `json:"user_sophistication"`
}

// AgentStatistics is the global read-only projection over agent state.
type AgentStatistics struct {
	TotalUsers           int                      `json:"total_users"`
	TotalRecommendations int                      `json:"total_recommendations"`
	AverageReward        float64                  `json:"average_reward"`
	ActiveSessions       int                      `json:"active_sessions"`
	StrategyPerformance  map[string]StrategyStats `json:"strategy_performance"`
	TopUsers             []UserSummary            `json:"top_users"`
}

// HistoryEntry is one row of a user profile's interaction history.
type HistoryEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	ArtistID   int       `json:"artist_id"`
	ArtistName string    `json:"artist_name"`
	Strategy   string    `json:"strategy"`
	Reward     float64   `json:"reward"`
	Outcome    string    `json:"outcome"`
}

// UserProfile is the per-user read-only projection.
// Zero-history users get neutral defaults and PreferredStrategy "None".
type UserProfile struct {
	UserID            int            `json:"user_id"`
	TotalInteractions int            `json:"total_interactions"`
	PreferredStrategy string         `json:"preferred_strategy"`
	AgentConfidence   float64        `json:"agent_confidence"`
	Sophistication    float64        `json:"user_sophistication"`
	History           []HistoryEntry `json:"interaction_history"`
}

// DataProvider is the read-only data source the agent consults. It is
// typically implemented by the dataset package; the interface lives here so
// the core has no dependency on any concrete storage layer.
//
// Implementations must be safe for concurrent use.
type DataProvider interface {
	// UserExists reports whether the user appears in the interaction data.
	UserExists(userID int) bool

	// ArtistName returns the display name for an artist, or a synthesized
	// placeholder when the id is unknown.
	ArtistName(artistID int) string

	// ArtistIDs returns the full artist id universe.
	ArtistIDs() []int

	// UserIDs returns up to limit user ids from the interaction data.
	UserIDs(limit int) []int

	// UserInteractions returns the user's listening records.
	UserInteractions(userID int) []Interaction

	// TopArtists returns artist ids ordered by global summed interaction
	// weight, descending. Ties are ordered by ascending artist id.
	TopArtists() []int

	// UserFriends returns the user's friend ids.
	UserFriends(userID int) []int

	// FriendInteractions returns the pooled listening records of the
	// user's friends.
	FriendInteractions(userID int) []Interaction

	// UserTagIDs returns the distinct tag ids the user has assigned.
	UserTagIDs(userID int) []int

	// ArtistTagCounts returns, for artists tagged with any of the given
	// tags, the number of matching tag assignments.
	ArtistTagCounts(tagIDs []int) map[int]int

	// InteractionCount returns the total number of interaction records.
	InteractionCount() int

	// InteractionAt returns the i-th interaction record, 0 <= i < InteractionCount().
	InteractionAt(i int) Interaction
}

// StatePerceiver derives a bounded state vector for a user.
// Implemented by the perception package.
type StatePerceiver interface {
	State(userID int) UserState
}

// RewardShaper converts categorical feedback into a shaped scalar reward
// in [0,1] plus its additive components. Implemented by the reward package.
type RewardShaper interface {
	Reward(strategy Strategy, outcome Outcome, state UserState) (float64, RewardComponents)
}
