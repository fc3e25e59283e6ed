package profile

import (
	"sort"
	"strings"
)

// SegmentationMode controls how the recognition engine segments the page.
type SegmentationMode int

const (
	SegmentAuto SegmentationMode = iota
	SegmentSparseText
	SegmentSingleBlock
	SegmentSingleLine
	SegmentSingleColumn
)

func (m SegmentationMode) String() string {
	switch m {
	case SegmentSparseText:
		return "sparse_text"
	case SegmentSingleBlock:
		return "single_block"
	case SegmentSingleLine:
		return "single_line"
	case SegmentSingleColumn:
		return "single_column"
	default:
		return "auto"
	}
}

// EngineMode selects the recognition engine's internal algorithm variant.
type EngineMode int

const (
	EngineDefault EngineMode = iota
	EngineLegacy
	EngineNeural
)

func (m EngineMode) String() string {
	switch m {
	case EngineLegacy:
		return "legacy"
	case EngineNeural:
		return "neural"
	default:
		return "default"
	}
}

// PreprocessingConfig is an immutable value object describing the
// deterministic transformation pipeline applied before recognition.
type PreprocessingConfig struct {
	BackgroundRemoval bool
	Deskew            bool
	DenoiseStrength   float64
	CLAHEEnabled      bool
	AdaptiveBlockSize int
	MorphologyEnabled bool
	MinDimensionPx    int
}

// DocumentProfile bundles the recognition configuration for one document
// kind. Profiles are immutable and loaded once at process start.
type DocumentProfile struct {
	Kind             string
	Languages        []string // ordered: first entry is the primary language
	SegmentationMode SegmentationMode
	EngineMode       EngineMode
	Whitelist        string // empty means no character restriction
	Preprocessing    PreprocessingConfig
}

// Fingerprint returns a canonical serialization of the profile used as the
// configuration half of a cache key. Two equal profiles serialize
// identically regardless of construction order: languages keep their
// declared order (they are an ordered set), the whitelist is sorted because
// it is an unordered character set.
func (p DocumentProfile) Fingerprint() string {
	wl := []byte(p.Whitelist)
	sort.Slice(wl, func(i, j int) bool { return wl[i] < wl[j] })

	var b strings.Builder
	b.WriteString("kind=")
	b.WriteString(p.Kind)
	b.WriteString(";langs=")
	b.WriteString(strings.Join(p.Languages, ","))
	b.WriteString(";seg=")
	b.WriteString(p.SegmentationMode.String())
	b.WriteString(";engine=")
	b.WriteString(p.EngineMode.String())
	b.WriteString(";whitelist=")
	b.Write(wl)
	b.WriteString(";prep=")
	b.WriteString(p.Preprocessing.fingerprint())
	return b.String()
}

func (c PreprocessingConfig) fingerprint() string {
	var b strings.Builder
	writeBool := func(name string, v bool) {
		b.WriteString(name)
		if v {
			b.WriteString("=1,")
		} else {
			b.WriteString("=0,")
		}
	}
	writeBool("bg", c.BackgroundRemoval)
	writeBool("deskew", c.Deskew)
	writeBool("clahe", c.CLAHEEnabled)
	writeBool("morph", c.MorphologyEnabled)
	b.WriteString("denoise=")
	b.WriteString(floatKey(c.DenoiseStrength))
	b.WriteString(",block=")
	b.WriteString(intKey(c.AdaptiveBlockSize))
	b.WriteString(",mindim=")
	b.WriteString(intKey(c.MinDimensionPx))
	return b.String()
}
