package config

import (
	"maps"
	"slices"

	"github.com/scielo/articlecheck/pkg/issue"
)

// Scope names.
const (
	ScopeMain        = "main"
	ScopeTranslation = "translation"
)

// Scope is the resolved configuration applied to one kind of node: the main
// article (and its non-translation sub-articles) or a translation.
type Scope struct {
	Name string

	Tags              []string
	RequiredReference map[string]bool
	Sections          []SectionRule

	Thresholds   map[string]float64
	Severities   map[Rule]issue.Severity
	CountryCodes map[string]bool
}

// Severity returns the configured severity of rule. Resolution guarantees
// every known rule is present.
func (s *Scope) Severity(rule Rule) issue.Severity {
	return s.Severities[rule]
}

// RequiredTags returns the element names that must be cited, sorted.
func (s *Scope) RequiredTags() []string {
	var tags []string
	for tag, required := range s.RequiredReference {
		if required {
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags
}

// Requires reports whether elements named tag must be cited.
func (s *Scope) Requires(tag string) bool {
	return s.RequiredReference[tag]
}

// ValidCountry reports whether code is in the country allow-list.
func (s *Scope) ValidCountry(code string) bool {
	return s.CountryCodes[code]
}

// withOverrides returns a translation scope: a copy of s with the override
// keys replacing the main values.
func (s *Scope) withOverrides(o Overrides) (*Scope, error) {
	t := &Scope{
		Name:              ScopeTranslation,
		Tags:              slices.Clone(s.Tags),
		RequiredReference: maps.Clone(s.RequiredReference),
		Sections:          slices.Clone(s.Sections),
		Thresholds:        maps.Clone(s.Thresholds),
		Severities:        maps.Clone(s.Severities),
		CountryCodes:      s.CountryCodes,
	}
	maps.Copy(t.RequiredReference, o.RequiredReference)
	if err := mergeThresholds(t, o.SimilarityThresholds); err != nil {
		return nil, err
	}
	if err := mergeSeverities(t, o.Severities); err != nil {
		return nil, err
	}
	return t, nil
}
