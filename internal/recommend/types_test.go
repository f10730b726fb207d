// Tonearm - Adaptive Music Recommendation Service
// Copyright 2026 The Tonearm Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tonearm/tonearm

package recommend

import (
	"testing"

	json "github.com/goccy/go-json"
)

func TestStrategyString(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     string
	}{
		{StrategySocial, "Social Influence"},
		{StrategySemantic, "Semantic Coherence"},
		{StrategyExploration, "Exploration"},
		{StrategyTraditional, "Traditional CF"},
		{Strategy(99), "unknown"},
		{Strategy(-1), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.strategy.String(); got != tt.want {
			t.Errorf("Strategy(%d).String() = %q, want %q", tt.strategy, got, tt.want)
		}
	}
}

func TestStrategyValid(t *testing.T) {
	for s := StrategySocial; s < NumStrategies; s++ {
		if !s.Valid() {
			t.Errorf("Strategy(%d).Valid() = false, want true", s)
		}
	}
	for _, s := range []Strategy{-1, NumStrategies, 42} {
		if s.Valid() {
			t.Errorf("Strategy(%d).Valid() = true, want false", s)
		}
	}
}

func TestParseStrategyRoundTrip(t *testing.T) {
	for _, s := range Strategies() {
		parsed, ok := ParseStrategy(s.String())
		if !ok || parsed != s {
			t.Errorf("ParseStrategy(%q) = %v, %v; want %v, true", s.String(), parsed, ok, s)
		}
	}

	if _, ok := ParseStrategy("Jazz Hands"); ok {
		t.Error("ParseStrategy accepted an unknown name")
	}
}

func TestStrategyJSON(t *testing.T) {
	data, err := json.Marshal(StrategySemantic)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"Semantic Coherence"` {
		t.Errorf("marshal = %s, want %q", data, "Semantic Coherence")
	}

	var s Strategy
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != StrategySemantic {
		t.Errorf("unmarshal = %v, want semantic", s)
	}

	if err := json.Unmarshal([]byte(`"Polka"`), &s); err == nil {
		t.Error("unmarshal accepted an unknown strategy name")
	}
}

func TestOutcomeBaseReward(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    float64
	}{
		{OutcomePositive, 0.8},
		{OutcomeNeutral, 0.5},
		{OutcomeNegative, 0.2},
		{Outcome(99), 0.5},
	}

	for _, tt := range tests {
		if got := tt.outcome.BaseReward(); got != tt.want {
			t.Errorf("%v.BaseReward() = %v, want %v", tt.outcome, got, tt.want)
		}
	}
}

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		in   string
		want Outcome
	}{
		{"positive", OutcomePositive},
		{"negative", OutcomeNegative},
		{"neutral", OutcomeNeutral},
		{"", OutcomeNeutral},
		{"meh", OutcomeNeutral},
	}

	for _, tt := range tests {
		if got := ParseOutcome(tt.in); got != tt.want {
			t.Errorf("ParseOutcome(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOutcomeJSONRoundTrip(t *testing.T) {
	for _, o := range []Outcome{OutcomeNeutral, OutcomePositive, OutcomeNegative} {
		data, err := json.Marshal(o)
		if err != nil {
			t.Fatalf("marshal %v: %v", o, err)
		}
		var back Outcome
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != o {
			t.Errorf("round trip %v -> %s -> %v", o, data, back)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero new-user confidence", func(c *Config) { c.ConfidenceNewUser = 0 }},
		{"zero experienced confidence", func(c *Config) { c.ConfidenceExperiencedUser = 0 }},
		{"threshold above one", func(c *Config) { c.SophisticationThreshold = 1.5 }},
		{"threshold below zero", func(c *Config) { c.SophisticationThreshold = -0.1 }},
		{"zero history window", func(c *Config) { c.HistoryWindow = 0 }},
		{"zero memory window", func(c *Config) { c.MemoryWindow = 0 }},
		{"zero profile history limit", func(c *Config) { c.ProfileHistoryLimit = 0 }},
		{"zero top users limit", func(c *Config) { c.TopUsersLimit = 0 }},
		{"negative noise sigma", func(c *Config) { c.NoiseSigma = -0.1 }},
		{"noise sigma at one", func(c *Config) { c.NoiseSigma = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
