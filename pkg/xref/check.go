package xref

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/antchfx/xpath"

	"github.com/scielo/articlecheck/pkg/config"
	"github.com/scielo/articlecheck/pkg/document"
	"github.com/scielo/articlecheck/pkg/issue"
)

type sectionQuery struct {
	rule config.SectionRule
	expr *xpath.Expr
}

// Checker emits cross-reference diagnostics for one configuration scope.
type Checker struct {
	scope    *config.Scope
	sections []sectionQuery
}

// NewChecker compiles the section selectors of scope.
func NewChecker(scope *config.Scope) (*Checker, error) {
	c := &Checker{scope: scope}
	for i, rule := range scope.Sections {
		expr, err := xpath.Compile(sectionExpr(rule))
		if err != nil {
			return nil, &config.ConfigurationError{
				Scope:   scope.Name,
				Key:     fmt.Sprintf("xref.sections[%d]", i),
				Message: fmt.Sprintf("invalid selector %s", rule),
				Err:     err,
			}
		}
		c.sections = append(c.sections, sectionQuery{rule: rule, expr: expr})
	}
	return c, nil
}

func sectionExpr(rule config.SectionRule) string {
	if rule.Attribute == "" {
		return "//" + rule.Tag
	}
	return fmt.Sprintf("//%s[@%s=%s]", rule.Tag, rule.Attribute, quote(rule.Value))
}

// quote renders s as an XPath string literal.
func quote(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}

// Check yields the diagnostics for the elements and xrefs owned by node:
// one per required element, one per reference edge, one per configured
// section, in that order.
func (c *Checker) Check(g *Graph, node *document.Node) iter.Seq[issue.Diagnostic] {
	return func(yield func(issue.Diagnostic) bool) {
		for d := range c.targets(g, node) {
			if !yield(d) {
				return
			}
		}
		for d := range c.references(g, node) {
			if !yield(d) {
				return
			}
		}
		for d := range c.sectionsOf(g, node) {
			if !yield(d) {
				return
			}
		}
	}
}

// targets covers every required element owned by node. An element
// without an id cannot be cited and fails with an empty expected value.
func (c *Checker) targets(g *Graph, node *document.Node) iter.Seq[issue.Diagnostic] {
	return func(yield func(issue.Diagnostic) bool) {
		rule := config.RuleXrefTargetReferenced
		for _, el := range node.Document().Elements() {
			if !c.scope.Requires(el.Data) || !node.Owns(el) {
				continue
			}
			id := strings.TrimSpace(el.SelectAttr("id"))
			count := 0
			if id != "" {
				count = g.InboundCount(id)
			}
			d := issue.New(issue.DiagXrefTargetReferenced).
				Context(node.Context()).
				Item(el.Data, "@id").
				Passed(count > 0).
				Values(id, strconv.Itoa(count)).
				Severity(string(rule), c.scope.Severity(rule)).
				Line(el.LineNumber).
				Params(map[string]any{"tag": el.Data, "id": id, "count": count}).
				Build()
			if !yield(d) {
				return
			}
		}
	}
}

func (c *Checker) references(g *Graph, node *document.Node) iter.Seq[issue.Diagnostic] {
	return func(yield func(issue.Diagnostic) bool) {
		rule := config.RuleXrefRidResolves
		for _, edge := range g.EdgesOf(node) {
			targets := g.ElementsByID[edge.RID]
			b := issue.New(issue.DiagXrefRidResolves).
				Context(node.Context()).
				Item(TagXref, "@rid").
				Passed(len(targets) > 0).
				Severity(string(rule), c.scope.Severity(rule)).
				Line(edge.Line).
				Param("rid", edge.RID).
				Param("ref_type", edge.RefType)
			if len(targets) > 0 {
				b.Values(edge.RID, targets[0].ID).Param("tag", targets[0].Tag)
			} else {
				b.Values(edge.RID, "")
			}
			if !yield(b.Build()) {
				return
			}
		}
	}
}

func (c *Checker) sectionsOf(g *Graph, node *document.Node) iter.Seq[issue.Diagnostic] {
	return func(yield func(issue.Diagnostic) bool) {
		rule := config.RuleXrefSectionReferenced
		for _, q := range c.sections {
			for _, sec := range node.Find(nil, q.expr) {
				id := strings.TrimSpace(sec.SelectAttr("id"))
				count := 0
				if id != "" {
					count = g.InboundCount(id)
				}
				d := issue.New(issue.DiagXrefSectionReferenced).
					Context(node.Context()).
					Item(q.rule.Tag, "@id").
					Passed(count > 0).
					Values(id, strconv.Itoa(count)).
					Severity(string(rule), c.scope.Severity(rule)).
					Line(sec.LineNumber).
					Params(map[string]any{
						"tag":       q.rule.Tag,
						"attribute": q.rule.Attribute,
						"value":     q.rule.Value,
						"id":        id,
						"count":     count,
					}).
					Build()
				if !yield(d) {
					return
				}
			}
		}
	}
}
