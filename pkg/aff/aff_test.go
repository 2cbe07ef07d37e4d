package aff

import (
	"errors"
	"testing"

	"github.com/scielo/articlecheck/pkg/config"
	"github.com/scielo/articlecheck/pkg/document"
	"github.com/scielo/articlecheck/pkg/issue"
)

const affXML = `<article article-type="research-article" xml:lang="en" id="main">
  <front>
    <article-meta>
      <aff id="aff1">
        <label>1</label>
        <institution content-type="original">Universidade de São Paulo, Faculdade de Medicina, São Paulo, SP, Brasil</institution>
        <institution content-type="orgname">Universidade de São Paulo</institution>
        <institution content-type="orgdiv1">Faculdade de Medicina</institution>
        <addr-line>
          <named-content content-type="city">São Paulo</named-content>
          <named-content content-type="state">SP</named-content>
        </addr-line>
        <country country="BR">Brasil</country>
      </aff>
    </article-meta>
  </front>
  <sub-article article-type="translation" id="s1" xml:lang="pt">
    <front-stub>
      <aff id="aff1pt">
        <label>1</label>
        <institution content-type="original">Universidade de São Paulo, Faculdade de Medicina, São Paulo, SP, Brasil</institution>
        <institution content-type="orgname">Universidade de São Paulo</institution>
        <addr-line>
          <city>São Paulo</city>
          <state>SP</state>
        </addr-line>
      </aff>
    </front-stub>
  </sub-article>
  <sub-article article-type="reviewer-report" id="r1" xml:lang="en">
    <body><p>Review</p></body>
  </sub-article>
</article>`

func parse(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(affXML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func scopes(t *testing.T) *config.Scopes {
	t.Helper()
	s, err := config.Default().Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return s
}

func TestExtract(t *testing.T) {
	doc := parse(t)
	affs, err := Extract(doc.Article())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(affs) != 1 {
		t.Fatalf("got %d affiliations, want 1", len(affs))
	}

	a := affs[0]
	tests := []struct {
		name, got, want string
	}{
		{"id", a.ID, "aff1"},
		{"label", a.Label, "1"},
		{"orgname", a.OrgName, "Universidade de São Paulo"},
		{"orgdiv1", a.OrgDiv1, "Faculdade de Medicina"},
		{"orgdiv2", a.OrgDiv2, ""},
		{"city", a.City, "São Paulo"},
		{"state", a.State, "SP"},
		{"country", a.Country, "Brasil"},
		{"country code", a.CountryCode, "BR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
	if a.Context.ParentID != "main" || a.Line == 0 {
		t.Errorf("Context = %+v, Line = %d", a.Context, a.Line)
	}
}

func TestExtractTranslation(t *testing.T) {
	doc := parse(t)
	sub := doc.Article().Translations()[0]

	affs, err := Extract(sub)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(affs) != 1 {
		t.Fatalf("got %d affiliations, want 1", len(affs))
	}
	a := affs[0]
	if a.HasCountry || a.City != "São Paulo" || a.State != "SP" {
		t.Errorf("translated affiliation = %+v", a)
	}
	if a.Context.ParentLang != "pt" {
		t.Errorf("Context = %+v", a.Context)
	}

	rec := a.Record()
	if rec.ID != "aff1pt" || rec.Fields[FieldCountry] != "" || rec.Fields[FieldOrgName] != "Universidade de São Paulo" {
		t.Errorf("Record() = %+v", rec)
	}
}

func TestExtractMissingFront(t *testing.T) {
	doc := parse(t)
	review := doc.Article().NotTranslations()[0]

	_, err := Extract(review)
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("Extract() error = %v, want ErrExtraction", err)
	}
	if err.Error() != "sub-article r1: no <front-stub>" {
		t.Errorf("Error() = %q", err.Error())
	}

	d, ok := FaultDiagnostic(err, scopes(t).Main)
	if !ok {
		t.Fatal("FaultDiagnostic() should convert an ExtractionError")
	}
	if d.Passed || d.Kind != issue.KindExists || d.Rule != string(config.RuleExtractionFault) {
		t.Errorf("fault diagnostic = %+v", d)
	}
	if d.Context.ParentID != "r1" {
		t.Errorf("Context = %+v", d.Context)
	}

	if _, ok := FaultDiagnostic(errors.New("other"), scopes(t).Main); ok {
		t.Error("FaultDiagnostic() should ignore other errors")
	}
}

// Main affiliation fully tagged; translated one lacks only the country.
func TestCheckMissingCountryInTranslation(t *testing.T) {
	doc := parse(t)
	s := scopes(t)

	mainAffs, err := Extract(doc.Article())
	if err != nil {
		t.Fatal(err)
	}
	var mainFailures int
	for d := range Check(mainAffs, s.Main) {
		if !d.Passed {
			mainFailures++
		}
	}
	if mainFailures != 0 {
		t.Errorf("main affiliation has %d failures, want 0", mainFailures)
	}

	trAffs, err := Extract(doc.Article().Translations()[0])
	if err != nil {
		t.Fatal(err)
	}
	var failed []issue.Diagnostic
	for d := range Check(trAffs, s.Translation) {
		if !d.Passed {
			failed = append(failed, d)
		}
	}
	if len(failed) != 1 {
		t.Fatalf("translation has %d failures, want 1: %v", len(failed), failed)
	}
	d := failed[0]
	if d.SubItem != FieldCountry || d.Severity != issue.SeverityInfo {
		t.Errorf("failure = %+v", d)
	}
	if d.Context.ParentLang != "pt" {
		t.Errorf("Context = %+v", d.Context)
	}
}

func TestCheckCountryCode(t *testing.T) {
	s := scopes(t).Main
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"valid", "BR", true},
		{"unknown", "XX", false},
		{"missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Affiliation{ID: "aff1", Country: "Brasil", CountryCode: tt.code, HasCountry: true}
			var got *issue.Diagnostic
			for d := range Check([]Affiliation{a}, s) {
				if d.Kind == issue.KindValueInList {
					got = &d
				}
			}
			if got == nil {
				t.Fatal("no country code diagnostic")
			}
			if got.Passed != tt.want {
				t.Errorf("Passed = %v, want %v", got.Passed, tt.want)
			}
		})
	}
}

func TestCheckNoCountryElementSkipsCode(t *testing.T) {
	a := Affiliation{ID: "aff1", Original: "x"}
	for d := range Check([]Affiliation{a}, scopes(t).Main) {
		if d.Kind == issue.KindValueInList {
			t.Error("country code should not be checked without <country>")
		}
	}
}
