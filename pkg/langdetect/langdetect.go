// Package langdetect scores natural-language text so the pipeline can keep
// English-only conversations.
package langdetect

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
	"github.com/pkg/errors"
)

// minRunes is the shortest trimmed text worth classifying; anything below
// is too short for n-gram statistics to mean anything.
const minRunes = 10

// Prediction is a language guess: a lowercase ISO 639-1 code and a
// confidence in [0, 1].
type Prediction struct {
	Lang       string
	Confidence float64
}

// Detector predicts the dominant language of a text.
type Detector interface {
	Detect(text string) (Prediction, error)
}

// LinguaDetector scores text with lingua's embedded n-gram models.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds a detector over all spoken languages. Model
// data loads lazily on first use.
func NewLinguaDetector() *LinguaDetector {
	return &LinguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().FromAllSpokenLanguages().Build(),
	}
}

// Detect returns the most confident language for text.
func (d *LinguaDetector) Detect(text string) (Prediction, error) {
	values := d.detector.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 {
		return Prediction{}, errors.New("no language detected")
	}
	top := values[0]
	return Prediction{
		Lang:       strings.ToLower(top.Language().IsoCode639_1().String()),
		Confidence: top.Value(),
	}, nil
}

// IsEnglish reports whether text is confidently English. Texts shorter
// than ten characters after trimming never qualify, and detector failures
// count as not English.
func IsEnglish(d Detector, text string, minConfidence float64) bool {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minRunes {
		return false
	}
	pred, err := d.Detect(text)
	if err != nil {
		return false
	}
	return pred.Lang == "en" && pred.Confidence >= minConfidence
}
