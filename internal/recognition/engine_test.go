package recognition

import "testing"

func TestResultConfidences(t *testing.T) {
	res := Result{
		Text: "a b",
		Tokens: []Token{
			{Text: "a", Confidence: 91.5},
			{Text: "b", Confidence: 42},
		},
	}

	got := res.Confidences()
	if len(got) != 2 {
		t.Fatalf("Expected 2 confidences, got %d", len(got))
	}
	if got[0] != 91.5 || got[1] != 42 {
		t.Errorf("Expected [91.5 42], got %v", got)
	}
}

func TestResultConfidencesEmpty(t *testing.T) {
	if got := (Result{}).Confidences(); len(got) != 0 {
		t.Errorf("Expected no confidences for empty result, got %v", got)
	}
}
