package profile

import "strconv"

// DefaultKind is the fallback profile applied when the requested document
// kind is not registered.
const DefaultKind = "generic"

// Registry is a static, read-only table mapping a document kind to its
// configuration bundle. Built once at process start; safe for concurrent
// readers without locking because it is never mutated afterwards.
type Registry struct {
	profiles map[string]DocumentProfile
	fallback DocumentProfile
}

// NewRegistry builds a registry from the given profiles. A profile with
// Kind == DefaultKind becomes the fallback; if none is supplied, a generic
// fallback is synthesized.
func NewRegistry(profiles ...DocumentProfile) *Registry {
	r := &Registry{
		profiles: make(map[string]DocumentProfile, len(profiles)),
		fallback: genericProfile(),
	}
	for _, p := range profiles {
		r.profiles[p.Kind] = p
		if p.Kind == DefaultKind {
			r.fallback = p
		}
	}
	return r
}

// NewDefaultRegistry returns the registry of built-in document kinds.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		genericProfile(),
		DocumentProfile{
			Kind:             "receipt",
			Languages:        []string{"eng"},
			SegmentationMode: SegmentSingleColumn,
			EngineMode:       EngineNeural,
			Whitelist:        "",
			Preprocessing: PreprocessingConfig{
				BackgroundRemoval: true,
				Deskew:            true,
				DenoiseStrength:   1.0,
				CLAHEEnabled:      true,
				AdaptiveBlockSize: 15,
				MorphologyEnabled: true,
				MinDimensionPx:    1000,
			},
		},
		DocumentProfile{
			Kind:             "invoice",
			Languages:        []string{"eng"},
			SegmentationMode: SegmentAuto,
			EngineMode:       EngineNeural,
			Preprocessing: PreprocessingConfig{
				Deskew:            true,
				DenoiseStrength:   0.5,
				CLAHEEnabled:      true,
				AdaptiveBlockSize: 25,
				MinDimensionPx:    1200,
			},
		},
		DocumentProfile{
			Kind:             "business_card",
			Languages:        []string{"eng"},
			SegmentationMode: SegmentSparseText,
			EngineMode:       EngineNeural,
			Preprocessing: PreprocessingConfig{
				BackgroundRemoval: true,
				Deskew:            true,
				DenoiseStrength:   1.0,
				CLAHEEnabled:      true,
				AdaptiveBlockSize: 15,
				MinDimensionPx:    800,
			},
		},
		DocumentProfile{
			Kind:             "id_card",
			Languages:        []string{"eng"},
			SegmentationMode: SegmentSparseText,
			EngineMode:       EngineNeural,
			Whitelist:        "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 .,-/<",
			Preprocessing: PreprocessingConfig{
				BackgroundRemoval: true,
				Deskew:            true,
				DenoiseStrength:   1.5,
				CLAHEEnabled:      true,
				AdaptiveBlockSize: 11,
				MorphologyEnabled: true,
				MinDimensionPx:    900,
			},
		},
		DocumentProfile{
			Kind:             "amount_field",
			Languages:        []string{"eng"},
			SegmentationMode: SegmentSingleLine,
			EngineMode:       EngineNeural,
			Whitelist:        "0123456789.,-",
			Preprocessing: PreprocessingConfig{
				DenoiseStrength:   0.5,
				CLAHEEnabled:      true,
				AdaptiveBlockSize: 11,
				MinDimensionPx:    400,
			},
		},
	)
}

// Resolve returns the profile for kind, falling back to the generic
// profile when the kind is unknown.
func (r *Registry) Resolve(kind string) DocumentProfile {
	if p, ok := r.profiles[kind]; ok {
		return p
	}
	return r.fallback
}

// Kinds lists every registered document kind.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.profiles))
	for k := range r.profiles {
		kinds = append(kinds, k)
	}
	return kinds
}

func genericProfile() DocumentProfile {
	return DocumentProfile{
		Kind:             DefaultKind,
		Languages:        []string{"eng"},
		SegmentationMode: SegmentAuto,
		EngineMode:       EngineNeural,
		Preprocessing: PreprocessingConfig{
			Deskew:            true,
			DenoiseStrength:   1.0,
			CLAHEEnabled:      true,
			AdaptiveBlockSize: 25,
			MinDimensionPx:    1000,
		},
	}
}

func intKey(v int) string { return strconv.Itoa(v) }

func floatKey(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
