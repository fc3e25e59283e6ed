package textproc

import (
	"strings"

	"github.com/arbovm/levenshtein"

	"github.com/anime-shed/doc-extractor-go/pkg/models"
)

// ScoreAccuracy compares extracted text against a caller-supplied expected
// text. MatchScore is 1 minus the normalized edit distance; CER is the
// character error rate relative to the expected text. Both strings are
// whitespace-normalized first so formatting differences do not count as
// errors.
func ScoreAccuracy(extracted, expected string) models.AccuracyReport {
	normExtracted := normalizeForComparison(extracted)
	normExpected := normalizeForComparison(expected)

	report := models.AccuracyReport{ExpectedText: expected}
	if normExpected == "" {
		report.MatchScore = 0
		report.CER = 1
		if normExtracted == "" {
			report.MatchScore = 1
			report.CER = 0
		}
		return report
	}

	dist := levenshtein.Distance(normExtracted, normExpected)

	maxLen := len(normExtracted)
	if len(normExpected) > maxLen {
		maxLen = len(normExpected)
	}
	report.MatchScore = 1 - float64(dist)/float64(maxLen)
	report.CER = float64(dist) / float64(len(normExpected))
	return report
}

func normalizeForComparison(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
