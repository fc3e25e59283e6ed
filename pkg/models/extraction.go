package models

import "time"

// ExtractionResult is the externally visible artifact of one extraction
// request. It is immutable once produced and may be served from cache.
type ExtractionResult struct {
	Text             string            `json:"text"`
	Confidence       ConfidenceSummary `json:"confidence"`
	DetectedLanguage string            `json:"detected_language"`
	DocumentKind     string            `json:"document_kind"`
	StrategyUsed     string            `json:"strategy_used"`
	EarlyStopped     bool              `json:"early_stopped"`
	Quality          QualityReport     `json:"quality"`

	// Populated only on the region-based and tiled paths.
	RegionCount *int `json:"region_count,omitempty"`
	TileCount   *int `json:"tile_count,omitempty"`

	// Attempts records the outcome of every strategy that ran, successful
	// or not, so callers can debug image quality issues.
	Attempts []AttemptOutcome `json:"attempts,omitempty"`

	// Accuracy is present when the caller supplied expected text.
	Accuracy *AccuracyReport `json:"accuracy,omitempty"`

	FromCache         bool      `json:"from_cache"`
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTimeSec float64   `json:"processing_time_sec"`
}

// ConfidenceSummary aggregates the per-token confidence scores (0-100)
// reported by the recognition engine for the winning attempt.
type ConfidenceSummary struct {
	Average            float64 `json:"average"`
	Min                float64 `json:"min"`
	Max                float64 `json:"max"`
	LowConfidenceCount int     `json:"low_confidence_count"`
}

// QualityReport scores the input image before extraction. A failed report
// never aborts the pipeline; it only flags the result and may trigger
// auto-correction.
type QualityReport struct {
	BlurScore       float64  `json:"blur_score"`
	ContrastScore   float64  `json:"contrast_score"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Passed          bool     `json:"passed"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// AttemptOutcome is the per-strategy metadata attached to a result.
type AttemptOutcome struct {
	Strategy      string  `json:"strategy"`
	Succeeded     bool    `json:"succeeded"`
	AvgConfidence float64 `json:"avg_confidence,omitempty"`
	TextLength    int     `json:"text_length,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// AccuracyReport compares extracted text against caller-supplied expected
// text. MatchScore is 1 - normalized edit distance; CER is the
// character error rate.
type AccuracyReport struct {
	ExpectedText string  `json:"expected_text"`
	MatchScore   float64 `json:"match_score"`
	CER          float64 `json:"character_error_rate"`
}

// CacheStats is the admin-surface view of the result cache.
type CacheStats struct {
	Entries     int   `json:"entries"`
	ApproxBytes int64 `json:"approx_bytes"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
}
