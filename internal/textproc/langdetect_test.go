package textproc

import "testing"

func TestDetectLanguage(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		fallback string
		expected string
	}{
		{
			name:     "english invoice",
			text:     "The total amount of the invoice is due for payment with the order",
			fallback: "deu",
			expected: "eng",
		},
		{
			name:     "german invoice",
			text:     "Der Betrag der Rechnung ist nicht mit dem Datum für die Zahlung",
			fallback: "eng",
			expected: "deu",
		},
		{
			name:     "french invoice",
			text:     "Le montant de la facture est pour le paiement avec la commande",
			fallback: "eng",
			expected: "fra",
		},
		{
			name:     "empty text falls back",
			text:     "",
			fallback: "eng",
			expected: "eng",
		},
		{
			name:     "no markers falls back",
			text:     "12345 67890 $$$",
			fallback: "spa",
			expected: "spa",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectLanguage(tc.text, tc.fallback); got != tc.expected {
				t.Errorf("DetectLanguage(%q) = %q, expected %q", tc.text, got, tc.expected)
			}
		})
	}
}

func TestDetectLanguageStripsPunctuation(t *testing.T) {
	// Marker words adjacent to punctuation still count.
	got := DetectLanguage("Total: the amount, and the date.", "deu")
	if got != "eng" {
		t.Errorf("Expected eng, got %q", got)
	}
}
