package issue

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/scielo/articlecheck/pkg/document"
)

// DiagnosticID identifies a specific diagnostic message.
type DiagnosticID string

// Diagnostic IDs for cross-reference checks.
const (
	DiagXrefTargetReferenced  DiagnosticID = "XREF_TARGET_REFERENCED"
	DiagXrefRidResolves       DiagnosticID = "XREF_RID_RESOLVES"
	DiagXrefSectionReferenced DiagnosticID = "XREF_SECTION_REFERENCED"
)

// Diagnostic IDs for affiliation checks.
const (
	DiagAffFieldExists DiagnosticID = "AFF_FIELD_EXISTS"
	DiagAffCountryCode DiagnosticID = "AFF_COUNTRY_CODE"
)

// Diagnostic IDs for translation equivalence.
const (
	DiagTranslationCount      DiagnosticID = "TRANSLATION_COUNT"
	DiagTranslationSimilarity DiagnosticID = "TRANSLATION_SIMILARITY"
)

// Diagnostic IDs for adapter faults and external style errors.
const (
	DiagExtractionFault DiagnosticID = "EXTRACTION_FAULT"
	DiagStyleSchema     DiagnosticID = "STYLE_SCHEMA"
	DiagStyleSchematron DiagnosticID = "STYLE_SCHEMATRON"
)

// DiagnosticTemplate defines the texts of a diagnostic. Templates use
// {placeholder} syntax for variable substitution.
type DiagnosticTemplate struct {
	Title  string
	Kind   Kind
	Pass   string
	Fail   string
	Advice string
}

var diagnosticTemplates = map[DiagnosticID]DiagnosticTemplate{
	DiagXrefTargetReferenced: {
		Title:  "{tag} is cited",
		Kind:   KindMatch,
		Pass:   `<{tag} id="{id}"> is cited by {count} xref(s)`,
		Fail:   `<{tag} id="{id}"> is not cited by any <xref rid="{id}">`,
		Advice: `Add <xref rid="{id}"> where {tag} "{id}" is mentioned in the text`,
	},
	DiagXrefRidResolves: {
		Title:  "xref rid resolves",
		Kind:   KindMatch,
		Pass:   `<xref rid="{rid}"> matches <{tag} id="{rid}">`,
		Fail:   `<xref rid="{rid}"> does not match any element id`,
		Advice: `Check the value of @rid="{rid}" or add an element with id="{rid}"`,
	},
	DiagXrefSectionReferenced: {
		Title:  "{tag} {attribute}={value} is cited",
		Kind:   KindMatch,
		Pass:   `<{tag} {attribute}="{value}" id="{id}"> is cited by {count} xref(s)`,
		Fail:   `<{tag} {attribute}="{value}" id="{id}"> is not cited by any xref`,
		Advice: `Give <{tag} {attribute}="{value}"> an id and cite it with <xref rid="...">`,
	},
	DiagAffFieldExists: {
		Title:  "affiliation {field}",
		Kind:   KindExists,
		Pass:   `<aff id="{id}"> has {field}: {value}`,
		Fail:   `<aff id="{id}"> has no {field}`,
		Advice: `Identify the {field} of <aff id="{id}"> with {markup}`,
	},
	DiagAffCountryCode: {
		Title:  "affiliation country code",
		Kind:   KindValueInList,
		Pass:   `<aff id="{id}"> country code {code} is valid`,
		Fail:   `<aff id="{id}"> country code "{code}" is not in the list of valid codes`,
		Advice: `Use an ISO 3166-1 alpha-2 code in <country country="">`,
	},
	DiagTranslationCount: {
		Title:  "affiliation translation count",
		Kind:   KindMatch,
		Pass:   `{main_count} affiliation(s) in main text and in translation ({lang})`,
		Fail:   `{main_count} affiliation(s) in main text but {translated_count} in translation ({lang})`,
		Advice: `Each affiliation of the main text must have a corresponding affiliation in the {lang} translation`,
	},
	DiagTranslationSimilarity: {
		Title:  "affiliation translation",
		Kind:   KindSimilarity,
		Pass:   `Translation ({lang}) corresponds to main affiliation {main_id}`,
		Fail:   `Translation ({lang}) does not correspond to main affiliation {main_id}: {mismatched}`,
		Advice: `Check that the {lang} affiliation {translated_id} translates main affiliation {main_id}`,
	},
	DiagExtractionFault: {
		Title:  "{section} extraction",
		Kind:   KindExists,
		Pass:   `<{section}> found in {parent}`,
		Fail:   `Could not locate <{section}> in {parent}: {error}`,
		Advice: `Add <{section}> to {parent}`,
	},
	DiagStyleSchema: {
		Title: "schema",
		Kind:  KindMatch,
		Pass:  "{message}",
		Fail:  "{message}",
	},
	DiagStyleSchematron: {
		Title: "schematron",
		Kind:  KindMatch,
		Pass:  "{message}",
		Fail:  "{message}",
	},
}

// formatTemplate replaces {placeholder} with values from params in a single
// pass. Substituted values are never rescanned.
func formatTemplate(template string, params map[string]any) string {
	if len(params) == 0 {
		return template
	}
	pairs := make([]string, 0, 2*len(params))
	for _, key := range slices.Sorted(maps.Keys(params)) {
		pairs = append(pairs, "{"+key+"}", fmt.Sprint(params[key]))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Builder provides a fluent API for building diagnostics from the catalog.
type Builder struct {
	id     DiagnosticID
	d      Diagnostic
	params map[string]any
}

// New starts a diagnostic from a catalog entry.
func New(id DiagnosticID) *Builder {
	tmpl := diagnosticTemplates[id]
	return &Builder{
		id: id,
		d: Diagnostic{
			Title:     tmpl.Title,
			Kind:      tmpl.Kind,
			MessageID: id,
		},
		params: make(map[string]any),
	}
}

// Context sets the owning node context.
func (b *Builder) Context(ctx document.Context) *Builder {
	b.d.Context = ctx
	return b
}

// Item sets the checked element and sub-item.
func (b *Builder) Item(item, subItem string) *Builder {
	b.d.Item = item
	b.d.SubItem = subItem
	return b
}

// Passed sets the outcome.
func (b *Builder) Passed(passed bool) *Builder {
	b.d.Passed = passed
	return b
}

// Values sets the expected and obtained values.
func (b *Builder) Values(expected, obtained string) *Builder {
	b.d.Expected = expected
	b.d.Obtained = obtained
	return b
}

// Severity sets the rule severity and the rule it came from.
func (b *Builder) Severity(rule string, severity Severity) *Builder {
	b.d.Rule = rule
	b.d.Severity = severity
	return b
}

// Line sets the source line.
func (b *Builder) Line(line int) *Builder {
	b.d.Line = line
	return b
}

// Param sets a template parameter; parameters are also kept as payload.
func (b *Builder) Param(key string, value any) *Builder {
	b.params[key] = value
	return b
}

// Params sets several template parameters.
func (b *Builder) Params(params map[string]any) *Builder {
	maps.Copy(b.params, params)
	return b
}

// Build renders the texts and returns the diagnostic.
func (b *Builder) Build() Diagnostic {
	tmpl, ok := diagnosticTemplates[b.id]
	d := b.d
	if len(b.params) > 0 {
		d.Payload = maps.Clone(b.params)
	}
	if !ok {
		d.Message = string(b.id)
		return d
	}
	d.Title = formatTemplate(tmpl.Title, b.params)
	if d.Passed {
		d.Message = formatTemplate(tmpl.Pass, b.params)
		return d
	}
	d.Message = formatTemplate(tmpl.Fail, b.params)
	if tmpl.Advice != "" {
		d.Advice = formatTemplate(tmpl.Advice, b.params)
	}
	return d
}
