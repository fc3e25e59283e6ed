package textproc

import "testing"

func TestCorrectWhitespace(t *testing.T) {
	c := NewCorrector()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"collapses runs of spaces", "TOTAL   12.50", "TOTAL 12.50"},
		{"trims leading and trailing", "  hello  ", "hello"},
		{"collapses blank lines", "a\n\n\n\nb", "a\n\nb"},
		{"strips trailing spaces before newline", "a  \nb", "a\nb"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Correct(tc.input); got != tc.expected {
				t.Errorf("Correct(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestCorrectDigitConfusions(t *testing.T) {
	c := NewCorrector()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"O between digits", "Amount: 1O0", "Amount: 100"},
		{"lowercase o between digits", "2o24", "2024"},
		{"l between digits", "1l5", "115"},
		{"I between digits", "4I2", "412"},
		{"S between digits", "1S0", "150"},
		{"B between digits", "1B2", "182"},
		{"consecutive confusions", "1O2O3", "10203"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Correct(tc.input); got != tc.expected {
				t.Errorf("Correct(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestCorrectLeavesWordsAlone(t *testing.T) {
	c := NewCorrector()

	// Letters inside words must never be rewritten to digits.
	inputs := []string{"Oslo", "Solution", "Bilbao", "Illinois"}
	for _, in := range inputs {
		if got := c.Correct(in); got != in {
			t.Errorf("Correct(%q) = %q, expected unchanged", in, got)
		}
	}
}

func TestCorrectRemovesIsolatedNoise(t *testing.T) {
	c := NewCorrector()

	got := c.Correct("INVOICE ^ 2024 ~ TOTAL")
	expected := "INVOICE 2024 TOTAL"
	if got != expected {
		t.Errorf("Correct = %q, expected %q", got, expected)
	}
}

func TestCorrectDeterministic(t *testing.T) {
	c := NewCorrector()
	in := "  1O0  EUR ^ due\n\n\n2o24 "

	first := c.Correct(in)
	second := c.Correct(in)
	if first != second {
		t.Errorf("Expected deterministic correction, got %q then %q", first, second)
	}
	// Correction of corrected text is a no-op.
	if again := c.Correct(first); again != first {
		t.Errorf("Expected idempotent correction, got %q from %q", again, first)
	}
}
