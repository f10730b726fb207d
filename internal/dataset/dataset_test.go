// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

package dataset

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

// writeDataDir lays out the five flat files in a temp directory. Pass an
// empty string to write just the header for a file.
func writeDataDir(t *testing.T, artists, userArtists, tags, tagged, friends string) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"artists.dat":            "id\tname\turl\tpictureURL\n" + artists,
		"user_artists.dat":       "userID\tartistID\tweight\n" + userArtists,
		"tags.dat":               "tagID\ttagValue\n" + tags,
		"user_taggedartists.dat": "userID\tartistID\ttagID\tday\tmonth\tyear\n" + tagged,
		"user_friends.dat":       "userID\tfriendID\n" + friends,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func loadTestRepo(t *testing.T) *Repository {
	t.Helper()

	dir := writeDataDir(t,
		"10\tArcadia\thttp://x\tpic\n11\tBasalt\thttp://x\tpic\n12\tCinder\thttp://x\tpic\n",
		"1\t10\t100\n1\t11\t50\n2\t12\t500\n3\t10\t20\n",
		"7\trock\n8\tambient\n",
		"1\t12\t7\t1\t4\t2009\n1\t12\t8\t1\t4\t2009\n2\t10\t7\t3\t5\t2010\n",
		"1\t2\n2\t1\n",
	)

	repo, err := Load(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return repo
}

func TestLoadCounts(t *testing.T) {
	repo := loadTestRepo(t)

	if got := repo.ArtistCount(); got != 3 {
		t.Errorf("artists = %d, want 3", got)
	}
	if got := repo.InteractionCount(); got != 4 {
		t.Errorf("interactions = %d, want 4", got)
	}
	if got := repo.UserCount(); got != 3 {
		t.Errorf("users = %d, want 3", got)
	}
	if got := repo.TagCount(); got != 2 {
		t.Errorf("tags = %d, want 2", got)
	}
	if got := repo.SkippedRows(); got != 0 {
		t.Errorf("skipped rows = %d, want 0", got)
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	dir := writeDataDir(t,
		"10\tArcadia\thttp://x\tpic\nnot-a-number\tBroken\tu\tp\n",
		"1\t10\t100\n1\tbroken\t50\nshort\n",
		"",
		"",
		"",
	)

	repo, err := Load(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.InteractionCount(); got != 1 {
		t.Errorf("interactions = %d, want 1", got)
	}
	// One bad artist row plus two bad interaction rows; headers don't count.
	if got := repo.SkippedRows(); got != 3 {
		t.Errorf("skipped rows = %d, want 3", got)
	}
}

func TestLoadEmptyInteractionsFails(t *testing.T) {
	dir := writeDataDir(t, "10\tArcadia\tu\tp\n", "", "", "", "")

	if _, err := Load(dir, zerolog.Nop()); err == nil {
		t.Fatal("expected error for a dataset with no interactions")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(dir, zerolog.Nop()); err == nil {
		t.Fatal("expected error for a missing data directory")
	}
}

func TestLatin1ArtistNames(t *testing.T) {
	// 0xE9 is é in ISO 8859-1. Written raw, it is invalid UTF-8 until decoded.
	dir := writeDataDir(t,
		"10\tCaf\xe9 Tacvba\tu\tp\n",
		"1\t10\t100\n",
		"", "", "",
	)

	repo, err := Load(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.ArtistName(10); got != "Café Tacvba" {
		t.Errorf("artist name = %q, want %q", got, "Café Tacvba")
	}
}

func TestArtistNameFallback(t *testing.T) {
	repo := loadTestRepo(t)

	if got := repo.ArtistName(999); got != "Artist_999" {
		t.Errorf("unknown artist name = %q, want Artist_999", got)
	}
}

func TestUserExists(t *testing.T) {
	repo := loadTestRepo(t)

	if !repo.UserExists(1) {
		t.Error("user 1 should exist")
	}
	if repo.UserExists(999) {
		t.Error("user 999 should not exist")
	}
}

func TestUserIDsLimit(t *testing.T) {
	repo := loadTestRepo(t)

	if got := repo.UserIDs(0); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("UserIDs(0) = %v, want [1 2 3]", got)
	}
	if got := repo.UserIDs(2); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("UserIDs(2) = %v, want [1 2]", got)
	}
}

func TestTopArtistsByWeight(t *testing.T) {
	repo := loadTestRepo(t)

	// Totals: artist 12 = 500, artist 10 = 120, artist 11 = 50.
	if got := repo.TopArtists(); !reflect.DeepEqual(got, []int{12, 10, 11}) {
		t.Errorf("TopArtists() = %v, want [12 10 11]", got)
	}
}

func TestUserInteractions(t *testing.T) {
	repo := loadTestRepo(t)

	got := repo.UserInteractions(1)
	if len(got) != 2 {
		t.Fatalf("interactions = %d, want 2", len(got))
	}
	if got[0].ArtistID != 10 || got[0].Weight != 100 {
		t.Errorf("first interaction = %+v", got[0])
	}
	if repo.UserInteractions(999) != nil {
		t.Error("unknown user should have nil interactions")
	}
}

func TestFriendQueries(t *testing.T) {
	repo := loadTestRepo(t)

	if got := repo.UserFriends(1); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("friends of 1 = %v, want [2]", got)
	}

	records := repo.FriendInteractions(1)
	if len(records) != 1 || records[0].ArtistID != 12 {
		t.Errorf("friend interactions = %+v, want user 2's artist 12", records)
	}

	if got := repo.FriendInteractions(3); got != nil {
		t.Errorf("friendless user interactions = %v, want nil", got)
	}
}

func TestTagQueries(t *testing.T) {
	repo := loadTestRepo(t)

	// User 1 used tags 7 and 8, in first-use order.
	if got := repo.UserTagIDs(1); !reflect.DeepEqual(got, []int{7, 8}) {
		t.Errorf("tags of 1 = %v, want [7 8]", got)
	}

	// Tag 7 appears on artist 12 (user 1) and artist 10 (user 2).
	counts := repo.ArtistTagCounts([]int{7})
	if !reflect.DeepEqual(counts, map[int]int{12: 1, 10: 1}) {
		t.Errorf("tag counts = %v", counts)
	}

	counts = repo.ArtistTagCounts([]int{7, 8})
	if counts[12] != 2 {
		t.Errorf("artist 12 count over both tags = %d, want 2", counts[12])
	}
}

func TestRawAccessors(t *testing.T) {
	repo := loadTestRepo(t)

	if got := len(repo.Interactions()); got != 4 {
		t.Errorf("raw interactions = %d, want 4", got)
	}
	if got := len(repo.Friendships()); got != 2 {
		t.Errorf("raw friendships = %d, want 2", got)
	}
	if got := len(repo.TagAssignments()); got != 3 {
		t.Errorf("raw tag assignments = %d, want 3", got)
	}
}

func TestDecodeLatin1(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain ascii", "plain ascii"},
		{"Caf\xe9", "Café"},
		{"M\xf8l", "Møl"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := decodeLatin1(tt.in); got != tt.want {
			t.Errorf("decodeLatin1(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
