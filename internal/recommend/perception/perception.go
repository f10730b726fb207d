// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

// Package perception derives bounded per-user state vectors from raw
// listening, friendship and tagging relations.
//
// A Module pre-aggregates the three relations once at construction, so every
// State call is an O(1) lookup plus O(F) work for the friend-overlap
// computation, where F is the user's friend count. Absence of data is a
// valid state, not an error: unknown users get an all-zero vector.
package perception

import (
	"github.com/tonearm/tonearm/internal/recommend"
)

// Fixed normalization denominators. Values at or above the denominator
// clamp to 1.0.
const (
	maxTotalPlays    = 10000.0
	maxUniqueArtists = 200.0
	maxAvgPlays      = 500.0
	maxFriends       = 20.0
	maxTotalTags     = 200.0
	maxUniqueTags    = 50.0
)

// musicAggregate holds precomputed listening statistics for one user.
type musicAggregate struct {
	totalPlays    int
	uniqueArtists int
	avgPlays      float64
}

// semanticAggregate holds precomputed tagging statistics for one user.
type semanticAggregate struct {
	totalTags  int
	uniqueTags int
}

// Module computes user state vectors from one-time aggregates.
// It is immutable after construction and safe for concurrent use.
type Module struct {
	music      map[int]musicAggregate
	artistSets map[int]map[int]struct{}
	friends    map[int][]int
	semantic   map[int]semanticAggregate
}

// NewModule builds the aggregation cache from the raw relations.
func NewModule(interactions []recommend.Interaction, friendships []recommend.Friendship, tags []recommend.TagAssignment) *Module {
	m := &Module{
		music:      make(map[int]musicAggregate),
		artistSets: make(map[int]map[int]struct{}),
		friends:    make(map[int][]int),
		semantic:   make(map[int]semanticAggregate),
	}

	for _, in := range interactions {
		set := m.artistSets[in.UserID]
		if set == nil {
			set = make(map[int]struct{})
			m.artistSets[in.UserID] = set
		}
		set[in.ArtistID] = struct{}{}

		agg := m.music[in.UserID]
		agg.totalPlays += in.Weight
		m.music[in.UserID] = agg
	}
	for userID, agg := range m.music {
		agg.uniqueArtists = len(m.artistSets[userID])
		if agg.uniqueArtists > 0 {
			agg.avgPlays = float64(agg.totalPlays) / float64(agg.uniqueArtists)
		}
		m.music[userID] = agg
	}

	for _, f := range friendships {
		m.friends[f.UserID] = append(m.friends[f.UserID], f.FriendID)
	}

	uniqueUserTags := make(map[int]map[int]struct{})
	for _, t := range tags {
		agg := m.semantic[t.UserID]
		agg.totalTags++
		m.semantic[t.UserID] = agg

		set := uniqueUserTags[t.UserID]
		if set == nil {
			set = make(map[int]struct{})
			uniqueUserTags[t.UserID] = set
		}
		set[t.TagID] = struct{}{}
	}
	for userID, set := range uniqueUserTags {
		agg := m.semantic[userID]
		agg.uniqueTags = len(set)
		m.semantic[userID] = agg
	}

	return m
}

// State returns the user's current state vector. It never fails: users
// absent from every relation get an all-zero state with zero sophistication.
func (m *Module) State(userID int) recommend.UserState {
	state := recommend.UserState{UserID: userID}

	if agg, ok := m.music[userID]; ok {
		state.MusicEngagement = clamp01(float64(agg.totalPlays) / maxTotalPlays)
		state.MusicDiversity = clamp01(float64(agg.uniqueArtists) / maxUniqueArtists)
		state.MusicIntensity = clamp01(agg.avgPlays / maxAvgPlays)
	}

	if friends, ok := m.friends[userID]; ok {
		state.SocialConnectivity = clamp01(float64(len(friends)) / maxFriends)
		state.SocialAlignment = m.friendOverlap(userID, friends)
	}

	if agg, ok := m.semantic[userID]; ok {
		state.SemanticActivity = clamp01(float64(agg.totalTags) / maxTotalTags)
		state.SemanticDiversity = clamp01(float64(agg.uniqueTags) / maxUniqueTags)
	}

	// Engagement and intensity intentionally do not contribute here; the
	// composite only drives exploration aggressiveness.
	state.OverallSophistication = clamp01((state.MusicDiversity + state.SocialConnectivity + state.SemanticDiversity) / 3)

	return state
}

// friendOverlap computes the Jaccard overlap between the user's artist set
// and the union of their friends' artist sets. Zero when either is empty.
func (m *Module) friendOverlap(userID int, friends []int) float64 {
	userSet := m.artistSets[userID]
	if len(userSet) == 0 {
		return 0
	}

	friendUnion := make(map[int]struct{})
	for _, friendID := range friends {
		for artistID := range m.artistSets[friendID] {
			friendUnion[artistID] = struct{}{}
		}
	}
	if len(friendUnion) == 0 {
		return 0
	}

	intersection := 0
	for artistID := range userSet {
		if _, ok := friendUnion[artistID]; ok {
			intersection++
		}
	}
	union := len(userSet) + len(friendUnion) - intersection
	return float64(intersection) / float64(union)
}

// clamp01 bounds v to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
