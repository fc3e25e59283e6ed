package textproc

import "strings"

// markerWords maps a language code to high-frequency function words that
// rarely appear in the other supported languages. Marker-word voting is
// crude but needs no model and works well on document-length text.
var markerWords = map[string][]string{
	"eng": {"the", "and", "of", "to", "in", "is", "for", "with", "total", "date", "amount", "invoice"},
	"deu": {"der", "die", "das", "und", "ist", "für", "mit", "nicht", "betrag", "rechnung", "datum", "gesamt"},
	"fra": {"le", "la", "les", "et", "est", "pour", "avec", "dans", "montant", "facture", "total", "date"},
	"spa": {"el", "los", "las", "es", "para", "con", "una", "del", "importe", "factura", "fecha", "total"},
}

// DetectLanguage guesses the dominant language of text by counting marker
// words per candidate language and taking the majority. Ties and empty
// input resolve to fallback.
func DetectLanguage(text, fallback string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return fallback
	}

	present := make(map[string]struct{}, len(words))
	for _, w := range words {
		present[strings.Trim(w, ".,;:!?()[]\"'")] = struct{}{}
	}

	best, bestScore := fallback, 0
	tied := false
	for lang, markers := range markerWords {
		score := 0
		for _, m := range markers {
			if _, ok := present[m]; ok {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = lang, score, false
		case score == bestScore && score > 0 && lang != best:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return fallback
	}
	return best
}
