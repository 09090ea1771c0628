// Package similarity provides string similarity scoring for name
// matching. The algorithm is exposed behind a single-method interface so
// callers never depend on a concrete metric: identity resolution and
// cost categorization use different scorers with different thresholds.
package similarity

import (
	"github.com/agnivade/levenshtein"
)

// Scorer computes a symmetric similarity ratio between two strings.
// The result is in [0, 1]: 1.0 only for identical strings, 0.0 for
// completely disjoint strings.
type Scorer interface {
	Score(a, b string) float64
}

// LevenshteinScorer scores by edit distance: 1 - distance/maxLen.
// Used for identity resolution, where the high 0.85 threshold guards
// the patient registry against false merges.
type LevenshteinScorer struct{}

func (LevenshteinScorer) Score(a, b string) float64 {
	if a == b {
		return 1.0
	}

	la := len([]rune(a))
	lb := len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// SequenceScorer scores by shared subsequence length: 2*M/T where M is
// the total length of the matching blocks and T the combined length of
// both strings. Used for cost categorization, where a looser match is
// acceptable because the result stays visible in reviewable listings.
type SequenceScorer struct{}

func (SequenceScorer) Score(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	matched := matchingLength(a, b)
	return 2.0 * float64(matched) / float64(total)
}

// matchingLength sums the matching blocks of a and b: it finds the
// longest common substring, then recurses into the unmatched pieces on
// either side of it.
func matchingLength(a, b string) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	n := size
	n += matchingLength(a[:ai], b[:bi])
	n += matchingLength(a[ai+size:], b[bi+size:])
	return n
}

func longestCommonSubstring(a, b string) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1]
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		// walk backwards so the row can be updated in place
		for j := len(b); j >= 1; j-- {
			if a[i-1] == b[j-1] {
				lengths[j] = lengths[j-1] + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
		}
	}
	return ai, bi, size
}
