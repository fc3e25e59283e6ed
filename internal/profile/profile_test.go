package profile

import "testing"

func TestResolveFallsBackToGeneric(t *testing.T) {
	r := NewDefaultRegistry()

	p := r.Resolve("no_such_kind")
	if p.Kind != DefaultKind {
		t.Errorf("Expected fallback to %q, got %q", DefaultKind, p.Kind)
	}
}

func TestResolveKnownKinds(t *testing.T) {
	r := NewDefaultRegistry()

	testCases := []struct {
		kind string
		seg  SegmentationMode
	}{
		{"receipt", SegmentSingleColumn},
		{"invoice", SegmentAuto},
		{"business_card", SegmentSparseText},
		{"id_card", SegmentSparseText},
		{"amount_field", SegmentSingleLine},
	}

	for _, tc := range testCases {
		t.Run(tc.kind, func(t *testing.T) {
			p := r.Resolve(tc.kind)
			if p.Kind != tc.kind {
				t.Errorf("Expected kind %q, got %q", tc.kind, p.Kind)
			}
			if p.SegmentationMode != tc.seg {
				t.Errorf("Expected segmentation %v, got %v", tc.seg, p.SegmentationMode)
			}
			if len(p.Languages) == 0 {
				t.Error("Expected at least one language")
			}
		})
	}
}

func TestFingerprintWhitelistOrderIndependent(t *testing.T) {
	a := DocumentProfile{Kind: "amount_field", Languages: []string{"eng"}, Whitelist: "0123456789.,-"}
	b := DocumentProfile{Kind: "amount_field", Languages: []string{"eng"}, Whitelist: "-,.9876543210"}

	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("Expected equal fingerprints for permuted whitelists:\n%s\n%s",
			a.Fingerprint(), b.Fingerprint())
	}
}

func TestFingerprintLanguageOrderSignificant(t *testing.T) {
	// Languages are an ordered set; the first entry is the primary language.
	a := DocumentProfile{Kind: "generic", Languages: []string{"eng", "deu"}}
	b := DocumentProfile{Kind: "generic", Languages: []string{"deu", "eng"}}

	if a.Fingerprint() == b.Fingerprint() {
		t.Error("Expected different fingerprints for reordered languages")
	}
}

func TestFingerprintDistinguishesPreprocessing(t *testing.T) {
	a := DocumentProfile{Kind: "generic", Preprocessing: PreprocessingConfig{AdaptiveBlockSize: 15}}
	b := DocumentProfile{Kind: "generic", Preprocessing: PreprocessingConfig{AdaptiveBlockSize: 25}}

	if a.Fingerprint() == b.Fingerprint() {
		t.Error("Expected different fingerprints for different block sizes")
	}
}

func TestCustomRegistryFallback(t *testing.T) {
	custom := DocumentProfile{Kind: DefaultKind, Languages: []string{"deu"}}
	r := NewRegistry(custom)

	p := r.Resolve("unknown")
	if len(p.Languages) != 1 || p.Languages[0] != "deu" {
		t.Errorf("Expected custom generic profile as fallback, got %+v", p)
	}
}
