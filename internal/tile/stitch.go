package tile

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

// maxSeamWindow caps how far back into the previous tile's text the seam
// search looks. Overlap bands are narrow, so duplicated runs are short.
const maxSeamWindow = 200

// fuzzySeamRatio is the normalized edit distance below which two seam
// windows count as the same text despite per-tile recognition jitter.
const fuzzySeamRatio = 0.2

// minFuzzyLen guards the fuzzy matcher against short windows, where a
// couple of edits would clear the ratio on unrelated text.
const minFuzzyLen = 8

// trimSeamOverlap removes from next the leading run that duplicates the
// tail of prev. Exact suffix/prefix matching is tried first, longest
// window down; failing that, a fuzzy pass tolerates the small character
// differences two recognition runs produce over the same overlap band.
func trimSeamOverlap(prev, next string) string {
	window := len(next)
	if len(prev) < window {
		window = len(prev)
	}
	if window > maxSeamWindow {
		window = maxSeamWindow
	}

	for n := window; n > 0; n-- {
		if prev[len(prev)-n:] == next[:n] {
			return strings.TrimSpace(next[n:])
		}
	}

	for n := window; n >= minFuzzyLen; n-- {
		tail := prev[len(prev)-n:]
		head := next[:n]
		dist := levenshtein.Distance(tail, head)
		if float64(dist)/float64(n) <= fuzzySeamRatio {
			return strings.TrimSpace(next[n:])
		}
	}

	return next
}
