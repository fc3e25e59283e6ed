package textproc

import (
	"regexp"
	"strings"
)

// Patterns are compiled once at init; correction runs on every extraction
// result so per-call compilation would dominate its cost.
var (
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
	trailingWS   = regexp.MustCompile(`[ \t]+\n`)

	// isolatedNoise matches single stray punctuation characters surrounded
	// by whitespace, a common artifact of speckle misread as text.
	isolatedNoise = regexp.MustCompile(`(^|\s)[\^~\x60´¨·]+(\s|$)`)

	// Letter/digit confusions are corrected only inside numeric context,
	// never in words: "1O0" between digits becomes "100" but "Oslo" is
	// untouched.
	confusionO = regexp.MustCompile(`(\d)[Oo](\d)`)
	confusionL = regexp.MustCompile(`(\d)[lI](\d)`)
	confusionS = regexp.MustCompile(`(\d)S(\d)`)
	confusionB = regexp.MustCompile(`(\d)B(\d)`)
)

// Corrector cleans raw recognition output. It is stateless and safe for
// concurrent use.
type Corrector struct{}

// NewCorrector returns a corrector.
func NewCorrector() *Corrector { return &Corrector{} }

// Correct normalizes whitespace, strips isolated noise characters, and
// fixes digit/letter confusions in numeric runs. The order matters: noise
// removal can leave doubled spaces that normalization then collapses.
func (c *Corrector) Correct(text string) string {
	text = isolatedNoise.ReplaceAllString(text, " ")
	text = fixConfusions(text)
	text = trailingWS.ReplaceAllString(text, "\n")
	text = multiSpace.ReplaceAllString(text, " ")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func fixConfusions(text string) string {
	// Overlapping matches ("1O2O3") need a second pass because the regexp
	// engine consumes the trailing digit of each match.
	for i := 0; i < 2; i++ {
		text = confusionO.ReplaceAllString(text, "${1}0${2}")
		text = confusionL.ReplaceAllString(text, "${1}1${2}")
		text = confusionS.ReplaceAllString(text, "${1}5${2}")
		text = confusionB.ReplaceAllString(text, "${1}8${2}")
	}
	return text
}
