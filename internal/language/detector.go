package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detector guesses the language of question text.
type Detector struct {
	detector lingua.LanguageDetector
}

// Supported lists the languages questions are classified into.
var Supported = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Russian,
	lingua.Ukrainian,
	lingua.Turkish,
}

// NewDetector builds a detector for Supported.
func NewDetector() *Detector {
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(Supported...).
		WithMinimumRelativeDistance(0.1).
		Build()
	return &Detector{detector: d}
}

// Detect returns the lower-case ISO 639-1 code, or "" when unsure.
func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
