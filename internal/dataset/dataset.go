// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

// Package dataset loads the hetrec-style flat files that back Tonearm and
// serves them as an immutable in-memory repository.
//
// Five tab-separated files are loaded once at startup: artists.dat,
// user_artists.dat, tags.dat, user_taggedartists.dat and user_friends.dat.
// The Repository pre-indexes everything the recommendation core queries
// and implements recommend.DataProvider. All lookups after construction
// are read-only, so the repository is safe for concurrent use.
package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tonearm/tonearm/internal/recommend"
)

// File names expected under the data directory.
const (
	artistsFile     = "artists.dat"
	userArtistsFile = "user_artists.dat"
	tagsFile        = "tags.dat"
	userTaggedFile  = "user_taggedartists.dat"
	userFriendsFile = "user_friends.dat"
)

// Repository is the in-memory, read-only view over the flat files.
type Repository struct {
	logger zerolog.Logger

	artistNames map[int]string
	artistIDs   []int

	interactions []recommend.Interaction
	byUser       map[int][]recommend.Interaction
	topArtists   []int
	userIDs      []int

	friends     map[int][]int
	friendEdges []recommend.Friendship

	assignments []recommend.TagAssignment
	userTags    map[int][]int
	tagIndex map[int][]int // tagID -> artistID per assignment row
	tagCount int

	skippedRows int
}

// Load reads all five files from dir and builds the repository.
// Malformed rows are skipped and counted; an empty interaction file is an
// error since the recommendation fallbacks sample from it.
func Load(dir string, logger zerolog.Logger) (*Repository, error) {
	r := &Repository{
		logger:      logger.With().Str("component", "dataset").Logger(),
		artistNames: make(map[int]string),
		byUser:      make(map[int][]recommend.Interaction),
		friends:     make(map[int][]int),
		userTags:    make(map[int][]int),
		tagIndex:    make(map[int][]int),
	}

	if err := r.loadArtists(filepath.Join(dir, artistsFile)); err != nil {
		return nil, err
	}
	if err := r.loadInteractions(filepath.Join(dir, userArtistsFile)); err != nil {
		return nil, err
	}
	if err := r.loadTags(filepath.Join(dir, tagsFile)); err != nil {
		return nil, err
	}
	if err := r.loadTagAssignments(filepath.Join(dir, userTaggedFile)); err != nil {
		return nil, err
	}
	if err := r.loadFriendships(filepath.Join(dir, userFriendsFile)); err != nil {
		return nil, err
	}

	if len(r.interactions) == 0 {
		return nil, fmt.Errorf("%s: no interaction records loaded", userArtistsFile)
	}

	r.buildIndexes()

	r.logger.Info().
		Int("artists", len(r.artistNames)).
		Int("interactions", len(r.interactions)).
		Int("users", len(r.userIDs)).
		Int("tags", r.tagCount).
		Int("skipped_rows", r.skippedRows).
		Msg("dataset loaded")

	return r, nil
}

// loadArtists reads id/name pairs; the url and picture columns are ignored.
func (r *Repository) loadArtists(path string) error {
	return r.scanFile(path, 2, func(fields []string) bool {
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return false
		}
		r.artistNames[id] = decodeLatin1(fields[1])
		return true
	})
}

// loadInteractions reads userID/artistID/weight triples.
func (r *Repository) loadInteractions(path string) error {
	return r.scanFile(path, 3, func(fields []string) bool {
		userID, err1 := strconv.Atoi(fields[0])
		artistID, err2 := strconv.Atoi(fields[1])
		weight, err3 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return false
		}
		in := recommend.Interaction{UserID: userID, ArtistID: artistID, Weight: weight}
		r.interactions = append(r.interactions, in)
		r.byUser[userID] = append(r.byUser[userID], in)
		return true
	})
}

// loadTags only validates and counts the tag vocabulary; the core never
// needs tag display values.
func (r *Repository) loadTags(path string) error {
	return r.scanFile(path, 2, func(fields []string) bool {
		if _, err := strconv.Atoi(fields[0]); err != nil {
			return false
		}
		r.tagCount++
		return true
	})
}

// loadTagAssignments reads userID/artistID/tagID rows; the date columns
// are ignored.
func (r *Repository) loadTagAssignments(path string) error {
	seen := make(map[int]map[int]struct{})
	return r.scanFile(path, 3, func(fields []string) bool {
		userID, err1 := strconv.Atoi(fields[0])
		artistID, err2 := strconv.Atoi(fields[1])
		tagID, err3 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return false
		}

		r.assignments = append(r.assignments, recommend.TagAssignment{
			UserID: userID, ArtistID: artistID, TagID: tagID,
		})
		r.tagIndex[tagID] = append(r.tagIndex[tagID], artistID)

		set := seen[userID]
		if set == nil {
			set = make(map[int]struct{})
			seen[userID] = set
		}
		if _, ok := set[tagID]; !ok {
			set[tagID] = struct{}{}
			r.userTags[userID] = append(r.userTags[userID], tagID)
		}
		return true
	})
}

// loadFriendships reads userID/friendID pairs.
func (r *Repository) loadFriendships(path string) error {
	return r.scanFile(path, 2, func(fields []string) bool {
		userID, err1 := strconv.Atoi(fields[0])
		friendID, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return false
		}
		r.friends[userID] = append(r.friends[userID], friendID)
		r.friendEdges = append(r.friendEdges, recommend.Friendship{UserID: userID, FriendID: friendID})
		return true
	})
}

// scanFile applies row to each tab-separated line with at least minFields
// columns. The header line and malformed rows are skipped and counted.
func (r *Repository) scanFile(path string, minFields int, row func(fields []string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < minFields || !row(fields) {
			// The first rejected line is almost always the header.
			if !first {
				r.skippedRows++
			}
		}
		first = false
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return nil
}

// buildIndexes derives the sorted id universes and the global popularity
// ranking after all files are loaded.
func (r *Repository) buildIndexes() {
	r.artistIDs = make([]int, 0, len(r.artistNames))
	for id := range r.artistNames {
		r.artistIDs = append(r.artistIDs, id)
	}
	sort.Ints(r.artistIDs)

	r.userIDs = make([]int, 0, len(r.byUser))
	for id := range r.byUser {
		r.userIDs = append(r.userIDs, id)
	}
	sort.Ints(r.userIDs)

	weights := make(map[int]int)
	for _, in := range r.interactions {
		weights[in.ArtistID] += in.Weight
	}
	r.topArtists = make([]int, 0, len(weights))
	for id := range weights {
		r.topArtists = append(r.topArtists, id)
	}
	sort.Slice(r.topArtists, func(i, j int) bool {
		wi, wj := weights[r.topArtists[i]], weights[r.topArtists[j]]
		if wi != wj {
			return wi > wj
		}
		return r.topArtists[i] < r.topArtists[j]
	})
}

// decodeLatin1 converts an ISO 8859-1 byte sequence to valid UTF-8.
// The source files predate UTF-8 export support.
func decodeLatin1(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			runes := make([]rune, len(s))
			for j := 0; j < len(s); j++ {
				runes[j] = rune(s[j])
			}
			return string(runes)
		}
	}
	return s
}
