// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

// strategies.go - the concrete recommendation rules behind each arm.
//
// Every rule is total: when its primary data signal is empty it falls back
// deterministically, ultimately to a uniform sample from the observed
// interaction set, so a recommend call always terminates with a valid
// Recommendation. Missing per-user signal (no friends, no tags, no
// history) is a valid state, never an error.
package recommend

import (
	"fmt"
	"time"
)

// socialRule picks the artist with the highest summed play weight among
// the user's friends' listening records. Ties resolve to the lowest
// artist id.
func (a *Agent) socialRule(userID int) Recommendation {
	friends := a.data.UserFriends(userID)
	if len(friends) == 0 {
		return a.randomFallback(StrategySocial)
	}

	records := a.data.FriendInteractions(userID)
	if len(records) == 0 {
		return a.randomFallback(StrategySocial)
	}

	weights := make(map[int]int)
	for _, in := range records {
		weights[in.ArtistID] += in.Weight
	}
	artistID := argmaxCount(weights)

	return Recommendation{
		ArtistID:   artistID,
		ArtistName: a.data.ArtistName(artistID),
		Strategy:   StrategySocial,
		Reason:     fmt.Sprintf("Popular among your %d friends", len(friends)),
		Confidence: 0.8,
		Timestamp:  time.Now(),
	}
}

// semanticRule picks the artist most frequently tagged with any tag the
// user has used. Ties resolve to the lowest artist id.
func (a *Agent) semanticRule(userID int) Recommendation {
	tagIDs := a.data.UserTagIDs(userID)
	if len(tagIDs) == 0 {
		return a.randomFallback(StrategySemantic)
	}

	counts := a.data.ArtistTagCounts(tagIDs)
	if len(counts) == 0 {
		return a.randomFallback(StrategySemantic)
	}
	artistID := argmaxCount(counts)

	return Recommendation{
		ArtistID:   artistID,
		ArtistName: a.data.ArtistName(artistID),
		Strategy:   StrategySemantic,
		Reason:     "Matches the tags on your music",
		Confidence: 0.7,
		Timestamp:  time.Now(),
	}
}

// explorationRule picks uniformly among artists the user has never played.
// A user who has played everything gets a uniform pick over the full
// universe instead.
func (a *Agent) explorationRule(userID int) Recommendation {
	listened := a.listenedSet(userID)

	all := a.data.ArtistIDs()
	unlistened := make([]int, 0, len(all))
	for _, id := range all {
		if _, ok := listened[id]; !ok {
			unlistened = append(unlistened, id)
		}
	}

	pool := unlistened
	if len(pool) == 0 {
		pool = all
	}
	artistID := pool[a.randIntn(len(pool))]

	return Recommendation{
		ArtistID:   artistID,
		ArtistName: a.data.ArtistName(artistID),
		Strategy:   StrategyExploration,
		Reason:     "Discover something new",
		Confidence: 0.6,
		Timestamp:  time.Now(),
	}
}

// traditionalRule returns the globally most-played artist the user has not
// played yet, walking the global ranking in descending weight order.
func (a *Agent) traditionalRule(userID int) Recommendation {
	listened := a.listenedSet(userID)

	for _, artistID := range a.data.TopArtists() {
		if _, ok := listened[artistID]; ok {
			continue
		}
		return Recommendation{
			ArtistID:   artistID,
			ArtistName: a.data.ArtistName(artistID),
			Strategy:   StrategyTraditional,
			Reason:     "Globally popular pick",
			Confidence: 0.7,
			Timestamp:  time.Now(),
		}
	}

	return a.randomFallback(StrategyTraditional)
}

// randomFallback samples one interaction record uniformly at random and
// recommends its artist. The interaction set is guaranteed non-empty at
// construction, so the fallback is total.
func (a *Agent) randomFallback(strategy Strategy) Recommendation {
	in := a.data.InteractionAt(a.randIntn(a.data.InteractionCount()))

	return Recommendation{
		ArtistID:   in.ArtistID,
		ArtistName: a.data.ArtistName(in.ArtistID),
		Strategy:   strategy,
		Reason:     fmt.Sprintf("Fallback pick for %s", strategy),
		Confidence: 0.5,
		Timestamp:  time.Now(),
	}
}

// listenedSet returns the set of artist ids the user has interacted with.
func (a *Agent) listenedSet(userID int) map[int]struct{} {
	history := a.data.UserInteractions(userID)
	set := make(map[int]struct{}, len(history))
	for _, in := range history {
		set[in.ArtistID] = struct{}{}
	}
	return set
}

// argmaxCount returns the key with the maximum count, ties to the lowest key.
func argmaxCount(counts map[int]int) int {
	best := -1
	bestCount := -1
	for id, count := range counts {
		if count > bestCount || (count == bestCount && id < best) {
			best, bestCount = id, count
		}
	}
	return best
}
