// Package styleerror turns errors reported by external schema and
// Schematron validators into diagnostics anchored at the offending element.
package styleerror

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/scielo/articlecheck/pkg/config"
	"github.com/scielo/articlecheck/pkg/document"
	"github.com/scielo/articlecheck/pkg/issue"
)

// Kind tags the validator that produced an error.
type Kind string

// Error kinds.
const (
	KindSchema     Kind = "schema"
	KindSchematron Kind = "schematron"
)

// Error is one error reported by an external validator. Schema errors carry
// a line and a message naming the element; Schematron errors carry an XPath
// location.
type Error struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column   int    `json:"column,omitempty" yaml:"column,omitempty"`
	Message  string `json:"message" yaml:"message"`
	Level    string `json:"level,omitempty" yaml:"level,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

func (e Error) String() string {
	if e.Kind == KindSchematron && e.Location != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Location)
	}
	return fmt.Sprintf("%s: line %d: %s", e.Kind, e.Line, e.Message)
}

var elementPattern = regexp.MustCompile(`Element '(?:\{[^}]*\})?([^']+)'`)

// ElementName returns the element named in a schema error message, without
// its namespace.
func ElementName(message string) (string, bool) {
	m := elementPattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ApparentElement finds the element an error refers to. It returns nil when
// the element cannot be located.
func ApparentElement(doc *document.Document, e Error) *xmlquery.Node {
	switch e.Kind {
	case KindSchema:
		return schemaElement(doc, e)
	case KindSchematron:
		return schematronElement(doc, e)
	default:
		return nil
	}
}

// schemaElement looks for the named element on the reported line, falling
// back to the last one starting before it.
func schemaElement(doc *document.Document, e Error) *xmlquery.Node {
	name, ok := ElementName(e.Message)
	if !ok {
		return nil
	}
	var before *xmlquery.Node
	for _, el := range doc.Elements() {
		if el.Data != name {
			continue
		}
		if el.LineNumber == e.Line {
			return el
		}
		if el.LineNumber < e.Line {
			before = el
		}
	}
	return before
}

func schematronElement(doc *document.Document, e Error) *xmlquery.Node {
	if strings.TrimSpace(e.Location) == "" {
		return nil
	}
	n, err := xmlquery.Query(doc.Root(), e.Location)
	if err != nil || n == nil {
		return nil
	}
	if n.Type == xmlquery.AttributeNode || n.Type == xmlquery.TextNode {
		n = n.Parent
	}
	return n
}

// Diagnostic converts e into a failing diagnostic. The scope is picked from
// the node owning the apparent element; errors that cannot be anchored are
// reported against the article.
func Diagnostic(doc *document.Document, e Error, scopes *config.Scopes) issue.Diagnostic {
	owner := doc.Article()
	item := ""
	line := e.Line
	if el := ApparentElement(doc, e); el != nil {
		item = el.Data
		if line == 0 {
			line = el.LineNumber
		}
		if n := doc.OwnerOf(el); n != nil {
			owner = n
		}
	}

	scope := scopes.Main
	if owner.IsTranslation() {
		scope = scopes.Translation
	}

	id := issue.DiagStyleSchema
	if e.Kind == KindSchematron {
		id = issue.DiagStyleSchematron
	}
	rule := config.RuleStyleError
	return issue.New(id).
		Context(owner.Context()).
		Item(item, e.Location).
		Passed(false).
		Values("", e.Message).
		Severity(string(rule), scope.Severity(rule)).
		Line(line).
		Params(map[string]any{
			"message": e.Message,
			"kind":    string(e.Kind),
			"level":   e.Level,
			"column":  e.Column,
		}).
		Build()
}
