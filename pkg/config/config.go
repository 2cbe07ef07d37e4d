// Package config holds the rule configuration of the validator: which
// elements require citations, similarity thresholds per field, the severity
// of every rule, and the overrides applied inside translations.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scielo/articlecheck/pkg/issue"
)

//go:embed defaults.yaml
var defaultRules []byte

// Rule names a check whose severity is configured.
type Rule string

// Rules known to the validator. Every rule must have a severity.
const (
	RuleXrefTargetReferenced     Rule = "xref_target_referenced"
	RuleXrefRidResolves          Rule = "xref_rid_resolves"
	RuleXrefSectionReferenced    Rule = "xref_section_referenced"
	RuleAffOriginal              Rule = "aff_original"
	RuleAffOrgName               Rule = "aff_orgname"
	RuleAffCountry               Rule = "aff_country"
	RuleAffCountryCode           Rule = "aff_country_code"
	RuleAffCity                  Rule = "aff_city"
	RuleAffState                 Rule = "aff_state"
	RuleAffTranslationCount      Rule = "aff_translation_count"
	RuleAffTranslationSimilarity Rule = "aff_translation_similarity"
	RuleExtractionFault          Rule = "extraction_fault"
	RuleStyleError               Rule = "style_error"
)

// AllRules returns every rule that needs a severity.
func AllRules() []Rule {
	return []Rule{
		RuleXrefTargetReferenced,
		RuleXrefRidResolves,
		RuleXrefSectionReferenced,
		RuleAffOriginal,
		RuleAffOrgName,
		RuleAffCountry,
		RuleAffCountryCode,
		RuleAffCity,
		RuleAffState,
		RuleAffTranslationCount,
		RuleAffTranslationSimilarity,
		RuleExtractionFault,
		RuleStyleError,
	}
}

// DefaultRequiredReference lists the elements that must be cited at least
// once when the configuration does not say otherwise.
func DefaultRequiredReference() map[string]bool {
	return map[string]bool{
		"fig":          true,
		"table-wrap":   true,
		"disp-formula": true,
		"ref":          true,
	}
}

// Config is the rule configuration as read from YAML.
type Config struct {
	Xref                 XrefConfig         `yaml:"xref"`
	SimilarityThresholds map[string]float64 `yaml:"similarity_thresholds"`
	Severities           map[string]string  `yaml:"severities"`
	CountryCodes         []string           `yaml:"country_codes"`
	TranslationOverrides Overrides          `yaml:"translation_overrides"`
}

// XrefConfig configures the cross-reference graph.
type XrefConfig struct {
	// Tags restricts which id-bearing elements are indexed. Empty means any.
	Tags []string `yaml:"tags"`

	// RequiredReference maps an element name to whether each such element
	// must be cited by at least one xref.
	RequiredReference map[string]bool `yaml:"required_reference"`

	// Sections lists content sections that must be cited.
	Sections []SectionRule `yaml:"sections"`
}

// SectionRule selects sections by element name and attribute value, e.g.
// <sec sec-type="supplementary-material">.
type SectionRule struct {
	Tag       string `yaml:"tag"`
	Attribute string `yaml:"attribute"`
	Value     string `yaml:"value"`
}

// String renders the rule as an element selector.
func (r SectionRule) String() string {
	if r.Attribute == "" {
		return r.Tag
	}
	return fmt.Sprintf("%s[@%s='%s']", r.Tag, r.Attribute, r.Value)
}

// Overrides mirrors the scope-dependent parts of Config for translations.
type Overrides struct {
	RequiredReference    map[string]bool    `yaml:"required_reference"`
	SimilarityThresholds map[string]float64 `yaml:"similarity_thresholds"`
	Severities           map[string]string  `yaml:"severities"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Parse(defaultRules)
	if err != nil {
		// The embedded file is part of the build.
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// DefaultYAML returns the embedded default configuration document.
func DefaultYAML() []byte {
	return slices.Clone(defaultRules)
}

// Parse decodes a YAML rule document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	return Load(bytes.NewReader(data))
}

// Load decodes a YAML rule document from r.
func Load(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigurationError{Message: "cannot parse rules", Err: err}
	}
	return cfg, nil
}

// LoadFile reads and decodes a YAML rule file.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first configuration error, if any.
func (c *Config) Validate() error {
	_, err := c.Resolve()
	return err
}

// Scopes holds the resolved configuration for main text and translations.
type Scopes struct {
	Main        *Scope
	Translation *Scope
}

// Resolve checks the configuration and builds the main and translation
// scopes. Missing thresholds, severities or country codes are errors; the
// cross-reference settings fall back to defaults.
func (c *Config) Resolve() (*Scopes, error) {
	main, err := c.resolveMain()
	if err != nil {
		return nil, err
	}
	translation, err := main.withOverrides(c.TranslationOverrides)
	if err != nil {
		return nil, err
	}
	return &Scopes{Main: main, Translation: translation}, nil
}

func (c *Config) resolveMain() (*Scope, error) {
	s := &Scope{
		Name:              ScopeMain,
		Tags:              slices.Clone(c.Xref.Tags),
		RequiredReference: maps.Clone(c.Xref.RequiredReference),
		Sections:          slices.Clone(c.Xref.Sections),
		Thresholds:        make(map[string]float64, len(c.SimilarityThresholds)),
		Severities:        make(map[Rule]issue.Severity, len(c.Severities)),
		CountryCodes:      make(map[string]bool, len(c.CountryCodes)),
	}
	if len(s.RequiredReference) == 0 {
		s.RequiredReference = DefaultRequiredReference()
	}

	for i, sec := range s.Sections {
		if strings.TrimSpace(sec.Tag) == "" {
			return nil, &ConfigurationError{Scope: ScopeMain, Key: fmt.Sprintf("xref.sections[%d].tag", i), Message: "is required"}
		}
		if sec.Attribute != "" && sec.Value == "" {
			return nil, &ConfigurationError{Scope: ScopeMain, Key: fmt.Sprintf("xref.sections[%d].value", i), Message: "is required when attribute is set"}
		}
	}

	if len(c.SimilarityThresholds) == 0 {
		return nil, &ConfigurationError{Scope: ScopeMain, Key: "similarity_thresholds", Message: "at least one field threshold is required"}
	}
	if err := mergeThresholds(s, c.SimilarityThresholds); err != nil {
		return nil, err
	}

	if err := mergeSeverities(s, c.Severities); err != nil {
		return nil, err
	}
	for _, rule := range AllRules() {
		if _, ok := s.Severities[rule]; !ok {
			return nil, &ConfigurationError{Scope: ScopeMain, Key: "severities." + string(rule), Message: "no severity configured"}
		}
	}

	for _, code := range c.CountryCodes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			s.CountryCodes[code] = true
		}
	}
	if len(s.CountryCodes) == 0 {
		return nil, &ConfigurationError{Scope: ScopeMain, Key: "country_codes", Message: "a list of valid country codes is required"}
	}

	return s, nil
}

func mergeThresholds(s *Scope, thresholds map[string]float64) error {
	for field, threshold := range thresholds {
		if strings.TrimSpace(field) == "" {
			return &ConfigurationError{Scope: s.Name, Key: "similarity_thresholds", Message: "empty field name"}
		}
		if threshold < 0 || threshold > 1 {
			return &ConfigurationError{
				Scope:   s.Name,
				Key:     "similarity_thresholds." + field,
				Message: fmt.Sprintf("threshold %v is outside [0, 1]", threshold),
			}
		}
		s.Thresholds[field] = threshold
	}
	return nil
}

func mergeSeverities(s *Scope, severities map[string]string) error {
	known := AllRules()
	for name, value := range severities {
		rule := Rule(name)
		if !slices.Contains(known, rule) {
			return &ConfigurationError{Scope: s.Name, Key: "severities." + name, Message: "unknown rule"}
		}
		sev, err := issue.ParseSeverity(value)
		if err != nil {
			return &ConfigurationError{Scope: s.Name, Key: "severities." + name, Message: err.Error()}
		}
		s.Severities[rule] = sev
	}
	return nil
}
