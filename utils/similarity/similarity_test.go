package similarity

import (
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		target   string
		minScore float64 // minimum acceptable similarity score
	}{
		{
			name:     "Identical strings",
			query:    "The Expanse",
			target:   "The Expanse",
			minScore: 1.0,
		},
		{
			name:     "Case insensitive",
			query:    "the expanse",
			target:   "The Expanse",
			minScore: 1.0,
		},
		{
			name:     "Dots vs spaces",
			query:    "The.Expanse",
			target:   "The Expanse",
			minScore: 1.0,
		},
		{
			name:     "Partial query contained in name",
			query:    "expanse",
			target:   "The Expanse",
			minScore: 0.85,
		},
		{
			name:     "Query with year suffix",
			query:    "archer 2009",
			target:   "Archer (2009)",
			minScore: 1.0,
		},
		{
			name:     "Small typo",
			query:    "the expanze",
			target:   "The Expanse",
			minScore: 0.8,
		},
		{
			name:     "Unrelated strings",
			query:    "breaking code",
			target:   "The Expanse",
			minScore: 0.0,
		},
		{
			name:     "Ampersand vs and",
			query:    "Law & Order",
			target:   "Law and Order",
			minScore: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.query, tt.target)
			t.Logf("Score(%q, %q) = %.2f", tt.query, tt.target, score)

			if tt.minScore == 1.0 && score != 1.0 {
				t.Errorf("Expected exact match (1.0), got %.2f", score)
			} else if score < tt.minScore {
				t.Errorf("Expected score >= %.2f, got %.2f", tt.minScore, score)
			}
		})
	}
}

func TestScoreRanksContainmentAboveFuzzy(t *testing.T) {
	contained := Score("expanse", "The Expanse")
	fuzzy := Score("expense", "The Expanse")
	if contained <= fuzzy {
		t.Fatalf("expected containment (%.2f) to outrank fuzzy (%.2f)", contained, fuzzy)
	}
}

func TestScoreIgnoresTinyQueries(t *testing.T) {
	if score := Score("e", "The Expanse"); score > 0.5 {
		t.Fatalf("single letter must not rank as a strong match, got %.2f", score)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The Expanse", "the expanse"},
		{"The.Expanse", "the expanse"},
		{"The-Expanse", "the expanse"},
		{"The_Expanse", "the expanse"},
		{"The   Expanse", "the expanse"},
		{"Archer (2009)", "archer 2009"},
		{"Law & Order", "law and order"},
		{"Me, MYSELF & I", "me myself and i"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := normalize(tt.input)
			if result != tt.expected {
				t.Errorf("normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
