package similarity

import "testing"

func TestLevenshteinScorer(t *testing.T) {
	s := LevenshteinScorer{}

	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"Identical", "doe jane", "doe jane", 1.0},
		{"Both empty", "", "", 1.0},
		{"Disjoint", "abc", "xyz", 0.0},
		{"One edit in four", "abcd", "abcx", 0.75},
		{"Empty against non-empty", "", "abcd", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSequenceScorer(t *testing.T) {
	s := SequenceScorer{}

	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"Identical", "jane doe", "jane doe", 1.0},
		{"Both empty", "", "", 1.0},
		{"Disjoint", "abc", "xyz", 0.0},
		{"Half shared", "ab", "axbx", 2.0 * 2.0 / 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestScorersAreSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"doe jane", "doe jan"},
		{"smith john", "smyth jon"},
		{"garcia maria", "gracia maria"},
	}

	for _, scorer := range []Scorer{LevenshteinScorer{}, SequenceScorer{}} {
		for _, p := range pairs {
			ab := scorer.Score(p[0], p[1])
			ba := scorer.Score(p[1], p[0])
			if ab != ba {
				t.Errorf("%T not symmetric for %q/%q: %v vs %v", scorer, p[0], p[1], ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Errorf("%T score out of range for %q/%q: %v", scorer, p[0], p[1], ab)
			}
		}
	}
}

func TestScoreBoundedByOne(t *testing.T) {
	s := SequenceScorer{}
	if got := s.Score("aaaa", "aa"); got >= 1.0 {
		t.Errorf("expected partial score below 1.0, got %v", got)
	}
}
