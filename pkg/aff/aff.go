// Package aff extracts affiliations from the front matter of an article or
// sub-article and checks that their parts are identified.
package aff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/scielo/articlecheck/pkg/document"
	"github.com/scielo/articlecheck/pkg/translation"
)

// Compared and checked field names.
const (
	FieldOriginal = "original"
	FieldOrgName  = "orgname"
	FieldOrgDiv1  = "orgdiv1"
	FieldOrgDiv2  = "orgdiv2"
	FieldCountry  = "country"
	FieldCity     = "city"
	FieldState    = "state"
)

// ErrExtraction is wrapped by every ExtractionError.
var ErrExtraction = errors.New("extraction failed")

// ExtractionError reports that the section holding affiliations could not
// be located in a node.
type ExtractionError struct {
	Node    *document.Node
	Section string
}

func (e *ExtractionError) Error() string {
	parent := string(e.Node.Kind())
	if id, ok := e.Node.ID(); ok {
		parent += " " + id
	}
	return fmt.Sprintf("%s: no <%s>", parent, e.Section)
}

func (e *ExtractionError) Unwrap() error {
	return ErrExtraction
}

// Affiliation is one <aff> element.
type Affiliation struct {
	ID          string
	Label       string
	Original    string
	OrgName     string
	OrgDiv1     string
	OrgDiv2     string
	Country     string
	CountryCode string
	City        string
	State       string

	// HasCountry is true when a <country> element exists, even if empty.
	HasCountry bool

	Line    int
	Context document.Context
}

// Record returns the comparable fields of the affiliation.
func (a Affiliation) Record() translation.Record {
	return translation.Record{
		ID:    a.ID,
		Label: a.Label,
		Fields: map[string]string{
			FieldOriginal: a.Original,
			FieldOrgName:  a.OrgName,
			FieldOrgDiv1:  a.OrgDiv1,
			FieldOrgDiv2:  a.OrgDiv2,
			FieldCountry:  a.Country,
			FieldCity:     a.City,
			FieldState:    a.State,
		},
		Context: a.Context,
		Line:    a.Line,
	}
}

// Records converts affiliations to comparison records.
func Records(affs []Affiliation) []translation.Record {
	out := make([]translation.Record, 0, len(affs))
	for _, a := range affs {
		out = append(out, a.Record())
	}
	return out
}

var (
	affExpr      = xpath.MustCompile("//aff")
	labelExpr    = xpath.MustCompile("label")
	originalExpr = xpath.MustCompile("institution[@content-type='original']")
	orgNameExpr  = xpath.MustCompile("institution[@content-type='orgname']")
	orgDiv1Expr  = xpath.MustCompile("institution[@content-type='orgdiv1']")
	orgDiv2Expr  = xpath.MustCompile("institution[@content-type='orgdiv2']")
	countryExpr  = xpath.MustCompile("country")
	cityExpr     = xpath.MustCompile("addr-line/named-content[@content-type='city'] | addr-line/city")
	stateExpr    = xpath.MustCompile("addr-line/named-content[@content-type='state'] | addr-line/state")
)

// Extract returns the affiliations declared in the front matter of node, in
// document order. It fails with an ExtractionError when the node has no
// front matter.
func Extract(node *document.Node) ([]Affiliation, error) {
	front := node.Front()
	if front == nil {
		section := "front"
		if node.Kind() == document.KindSubArticle {
			section = "front-stub"
		}
		return nil, &ExtractionError{Node: node, Section: section}
	}

	var affs []Affiliation
	for _, el := range node.Find(front, affExpr) {
		affs = append(affs, extractOne(el, node.Context()))
	}
	return affs, nil
}

func extractOne(el *xmlquery.Node, ctx document.Context) Affiliation {
	a := Affiliation{
		ID:       strings.TrimSpace(el.SelectAttr("id")),
		Label:    text(el, labelExpr),
		Original: text(el, originalExpr),
		OrgName:  text(el, orgNameExpr),
		OrgDiv1:  text(el, orgDiv1Expr),
		OrgDiv2:  text(el, orgDiv2Expr),
		City:     text(el, cityExpr),
		State:    text(el, stateExpr),
		Line:     el.LineNumber,
		Context:  ctx,
	}
	if country := xmlquery.QuerySelector(el, countryExpr); country != nil {
		a.HasCountry = true
		a.Country = clean(country.InnerText())
		a.CountryCode = strings.ToUpper(strings.TrimSpace(country.SelectAttr("country")))
	}
	return a
}

func text(el *xmlquery.Node, expr *xpath.Expr) string {
	n := xmlquery.QuerySelector(el, expr)
	if n == nil {
		return ""
	}
	return clean(n.InnerText())
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
