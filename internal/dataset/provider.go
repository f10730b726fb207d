// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

package dataset

import (
	"fmt"

	"github.com/tonearm/tonearm/internal/recommend"
)

// Repository satisfies the read interface of the recommendation core.
var _ recommend.DataProvider = (*Repository)(nil)

// UserExists reports whether userID has at least one listening record.
func (r *Repository) UserExists(userID int) bool {
	_, ok := r.byUser[userID]
	return ok
}

// ArtistName returns the display name for artistID, or a stable
// placeholder when the artist is referenced but absent from artists.dat.
func (r *Repository) ArtistName(artistID int) string {
	if name, ok := r.artistNames[artistID]; ok {
		return name
	}
	return fmt.Sprintf("Artist_%d", artistID)
}

// ArtistIDs returns every known artist id in ascending order.
// Callers must not mutate the returned slice.
func (r *Repository) ArtistIDs() []int {
	return r.artistIDs
}

// UserIDs returns up to limit user ids in ascending order; limit <= 0
// returns all of them. Callers must not mutate the returned slice.
func (r *Repository) UserIDs(limit int) []int {
	if limit <= 0 || limit >= len(r.userIDs) {
		return r.userIDs
	}
	return r.userIDs[:limit]
}

// UserInteractions returns the listening records for userID in file order.
// Callers must not mutate the returned slice.
func (r *Repository) UserInteractions(userID int) []recommend.Interaction {
	return r.byUser[userID]
}

// TopArtists returns artist ids ranked by total listening weight across
// all users, heaviest first. Callers must not mutate the returned slice.
func (r *Repository) TopArtists() []int {
	return r.topArtists
}

// UserFriends returns the friend ids recorded for userID.
// Callers must not mutate the returned slice.
func (r *Repository) UserFriends(userID int) []int {
	return r.friends[userID]
}

// FriendInteractions returns the combined listening records of the
// user's friends.
func (r *Repository) FriendInteractions(userID int) []recommend.Interaction {
	var out []recommend.Interaction
	for _, friendID := range r.friends[userID] {
		out = append(out, r.byUser[friendID]...)
	}
	return out
}

// UserTagIDs returns the distinct tag ids userID has applied, in first
// use order. Callers must not mutate the returned slice.
func (r *Repository) UserTagIDs(userID int) []int {
	return r.userTags[userID]
}

// ArtistTagCounts counts, per artist, how many assignments of the given
// tags it carries.
func (r *Repository) ArtistTagCounts(tagIDs []int) map[int]int {
	counts := make(map[int]int)
	for _, tagID := range tagIDs {
		for _, artistID := range r.tagIndex[tagID] {
			counts[artistID]++
		}
	}
	return counts
}

// InteractionCount returns the total number of listening records.
func (r *Repository) InteractionCount() int {
	return len(r.interactions)
}

// InteractionAt returns the i-th listening record in file order.
func (r *Repository) InteractionAt(i int) recommend.Interaction {
	return r.interactions[i]
}

// Interactions returns every listening record in file order.
// Callers must not mutate the returned slice.
func (r *Repository) Interactions() []recommend.Interaction {
	return r.interactions
}

// Friendships returns every directed friendship edge in file order.
// Callers must not mutate the returned slice.
func (r *Repository) Friendships() []recommend.Friendship {
	return r.friendEdges
}

// TagAssignments returns every tagging record in file order.
// Callers must not mutate the returned slice.
func (r *Repository) TagAssignments() []recommend.TagAssignment {
	return r.assignments
}

// ArtistCount returns the number of artists with display names.
func (r *Repository) ArtistCount() int {
	return len(r.artistNames)
}

// UserCount returns the number of users with listening records.
func (r *Repository) UserCount() int {
	return len(r.byUser)
}

// TagCount returns the size of the tag vocabulary.
func (r *Repository) TagCount() int {
	return r.tagCount
}

// SkippedRows returns how many malformed data rows were discarded at load.
func (r *Repository) SkippedRows() int {
	return r.skippedRows
}
