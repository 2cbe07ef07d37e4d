package aff

import (
	"errors"
	"iter"

	"github.com/scielo/articlecheck/pkg/config"
	"github.com/scielo/articlecheck/pkg/issue"
)

// TagAff is the checked element.
const TagAff = "aff"

type presence struct {
	field  string
	rule   config.Rule
	markup string
	value  func(Affiliation) string
}

var presenceChecks = []presence{
	{FieldOriginal, config.RuleAffOriginal, `<institution content-type="original">`, func(a Affiliation) string { return a.Original }},
	{FieldOrgName, config.RuleAffOrgName, `<institution content-type="orgname">`, func(a Affiliation) string { return a.OrgName }},
	{FieldCountry, config.RuleAffCountry, `<country country="">`, func(a Affiliation) string { return a.Country }},
	{FieldCity, config.RuleAffCity, `<addr-line><named-content content-type="city">`, func(a Affiliation) string { return a.City }},
	{FieldState, config.RuleAffState, `<addr-line><named-content content-type="state">`, func(a Affiliation) string { return a.State }},
}

// Check yields, for each affiliation, one exists diagnostic per identified
// part and a value-in-list diagnostic for the country code when a <country>
// element is present.
func Check(affs []Affiliation, scope *config.Scope) iter.Seq[issue.Diagnostic] {
	return func(yield func(issue.Diagnostic) bool) {
		for _, a := range affs {
			for _, p := range presenceChecks {
				value := p.value(a)
				d := issue.New(issue.DiagAffFieldExists).
					Context(a.Context).
					Item(TagAff, p.field).
					Passed(value != "").
					Values(p.field, value).
					Severity(string(p.rule), scope.Severity(p.rule)).
					Line(a.Line).
					Params(map[string]any{
						"id":     a.ID,
						"field":  p.field,
						"value":  value,
						"markup": p.markup,
					}).
					Build()
				if !yield(d) {
					return
				}
			}

			if !a.HasCountry {
				continue
			}
			rule := config.RuleAffCountryCode
			d := issue.New(issue.DiagAffCountryCode).
				Context(a.Context).
				Item(TagAff, "country/@country").
				Passed(scope.ValidCountry(a.CountryCode)).
				Values("ISO 3166-1 alpha-2", a.CountryCode).
				Severity(string(rule), scope.Severity(rule)).
				Line(a.Line).
				Params(map[string]any{"id": a.ID, "code": a.CountryCode}).
				Build()
			if !yield(d) {
				return
			}
		}
	}
}

// FaultDiagnostic converts an extraction failure into a failing exists
// diagnostic. It reports false when err is not an ExtractionError.
func FaultDiagnostic(err error, scope *config.Scope) (issue.Diagnostic, bool) {
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		return issue.Diagnostic{}, false
	}
	rule := config.RuleExtractionFault
	parent := string(xerr.Node.Kind())
	if id, ok := xerr.Node.ID(); ok {
		parent += ` id="` + id + `"`
	}
	d := issue.New(issue.DiagExtractionFault).
		Context(xerr.Node.Context()).
		Item(xerr.Section, "").
		Passed(false).
		Values(xerr.Section, "").
		Severity(string(rule), scope.Severity(rule)).
		Line(xerr.Node.Element().LineNumber).
		Params(map[string]any{
			"section": xerr.Section,
			"parent":  "<" + parent + ">",
			"error":   xerr.Error(),
		}).
		Build()
	return d, true
}
