package process

import (
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		clean string
	}{
		{"trademark glyph", "ELDEN RING™", "ELDEN RING"},
		{"trademark text", "Dark Souls(TM)", "Dark Souls"},
		{"registered text", "Fallout(R)", "Fallout"},
		{"trailing punctuation", "Portal 2!", "Portal 2"},
		{"goty edition with dash", "The Witcher 3: Wild Hunt - Game of the Year Edition", "The Witcher 3: Wild Hunt"},
		{"deluxe edition", "Sniper Elite 4 - Deluxe Edition", "Sniper Elite 4"},
		{"special edition", "Skyrim Special Edition", "Skyrim"},
		{"year marker", "Football Manager 2023", "Football Manager"},
		{"platform version", "Resident Evil 4 PC Version", "Resident Evil 4"},
		{"stacked suffixes", "Tomb Raider HD Remastered", "Tomb Raider"},
		{"whitespace runs", "Half   Life  2", "Half Life 2"},
		{"nothing to do", "Hollow Knight", "Hollow Knight"},
		{"word containing platform token", "SteamWorld Dig", "SteamWorld Dig"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeTitle(tc.raw)
			if got != tc.clean {
				t.Fatalf("NormalizeTitle(%q) = %q, expected %q", tc.raw, got, tc.clean)
			}
			again := NormalizeTitle(got)
			if again != got {
				t.Fatalf("NormalizeTitle is not idempotent: %q -> %q -> %q", tc.raw, got, again)
			}
		})
	}
}
