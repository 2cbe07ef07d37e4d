// Package translation decides whether records extracted from a translation
// are acceptable renderings of their main-language counterparts.
//
// Records are paired by position: the i-th translated record is compared
// with the i-th main record. Extraction keeps document order, so position
// approximates correspondence; the record ids are reported with every
// mismatch so that a reordering in the translation is visible to the reader.
package translation

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/scielo/articlecheck/pkg/config"
	"github.com/scielo/articlecheck/pkg/document"
	"github.com/scielo/articlecheck/pkg/similarity"
)

// Record is one structured entity extracted from a node, such as an
// affiliation, with its comparable text fields.
type Record struct {
	ID      string
	Label   string
	Fields  map[string]string
	Context document.Context
	Line    int
}

// FieldReport is the comparison outcome for one field of a pair.
type FieldReport struct {
	Field      string  `json:"field"`
	Main       string  `json:"main"`
	Translated string  `json:"translated"`
	Score      float64 `json:"score"`
	Threshold  float64 `json:"threshold"`
	Passed     bool    `json:"passed"`
}

// Mismatch renders the field as "field: main (main_id) x translated
// (translated_id)".
func (f FieldReport) Mismatch(mainID, translatedID string) string {
	return fmt.Sprintf("%s: %s (%s) x %s (%s)", f.Field, f.Main, mainID, f.Translated, translatedID)
}

// PairReport aggregates the field reports of one main/translated pair.
type PairReport struct {
	Main       Record
	Translated Record
	Fields     []FieldReport

	// Valid and Invalid count fields. A field missing from the translation
	// counts as valid but is still listed in Mismatched.
	Valid      int
	Invalid    int
	Mismatched []FieldReport
}

// Passed reports whether every field of the pair is valid.
func (p PairReport) Passed() bool {
	return p.Invalid == 0
}

// MismatchText lists the mismatched fields separated by "; ".
func (p PairReport) MismatchText() string {
	parts := make([]string, 0, len(p.Mismatched))
	for _, f := range p.Mismatched {
		parts = append(parts, f.Mismatch(p.Main.ID, p.Translated.ID))
	}
	return strings.Join(parts, "; ")
}

// Report is the comparison of one main record list with one translation.
type Report struct {
	Lang            string
	MainCount       int
	TranslatedCount int

	// Pairs is empty when the counts differ.
	Pairs []PairReport
}

// CountMatches reports whether both lists have the same length.
func (r *Report) CountMatches() bool {
	return r.MainCount == r.TranslatedCount
}

// Scorer compares records field by field against per-field thresholds.
// It is immutable and safe for concurrent use.
type Scorer struct {
	thresholds map[string]float64
	fields     []string
}

// NewScorer returns a Scorer for the given field thresholds. Empty
// thresholds or a threshold outside [0, 1] is a configuration error.
func NewScorer(thresholds map[string]float64) (*Scorer, error) {
	if len(thresholds) == 0 {
		return nil, &config.ConfigurationError{Key: "similarity_thresholds", Message: "at least one field threshold is required"}
	}
	for field, threshold := range thresholds {
		if threshold < 0 || threshold > 1 {
			return nil, &config.ConfigurationError{
				Key:     "similarity_thresholds." + field,
				Message: fmt.Sprintf("threshold %v is outside [0, 1]", threshold),
			}
		}
	}
	return &Scorer{
		thresholds: maps.Clone(thresholds),
		fields:     slices.Sorted(maps.Keys(thresholds)),
	}, nil
}

// Fields returns the compared field names in comparison order.
func (s *Scorer) Fields() []string {
	return slices.Clone(s.fields)
}

// Compare checks cardinality and, when the counts agree, compares every
// positional pair.
func (s *Scorer) Compare(main, translated []Record, lang string) *Report {
	r := &Report{
		Lang:            lang,
		MainCount:       len(main),
		TranslatedCount: len(translated),
	}
	if !r.CountMatches() {
		return r
	}
	r.Pairs = make([]PairReport, 0, len(main))
	for i := range main {
		r.Pairs = append(r.Pairs, s.ComparePair(main[i], translated[i]))
	}
	return r
}

// ComparePair compares the configured fields of one pair.
func (s *Scorer) ComparePair(main, translated Record) PairReport {
	p := PairReport{
		Main:       main,
		Translated: translated,
		Fields:     make([]FieldReport, 0, len(s.fields)),
	}
	for _, field := range s.fields {
		f := s.compareField(field, main.Fields[field], translated.Fields[field])
		p.Fields = append(p.Fields, f)

		scoreOK := f.Score >= f.Threshold
		if !scoreOK {
			p.Mismatched = append(p.Mismatched, f)
		}
		if f.Passed {
			p.Valid++
		} else {
			p.Invalid++
		}
	}
	return p
}

func (s *Scorer) compareField(field, main, translated string) FieldReport {
	f := FieldReport{
		Field:      field,
		Main:       main,
		Translated: translated,
		Threshold:  s.thresholds[field],
	}
	f.Score = similarity.Score(main, translated)
	f.Passed = f.Score >= f.Threshold
	if strings.TrimSpace(main) != "" && strings.TrimSpace(translated) == "" {
		// Missing values are reported by the presence checks.
		f.Passed = true
	}
	return f
}
