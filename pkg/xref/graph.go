// Package xref builds the cross-reference graph of a document and checks
// that every <xref> resolves and that citable elements are cited.
//
// The graph is a pair of indexes: element ids to the elements declaring them,
// and @rid values to the <xref> elements citing them. Unresolved targets and
// dangling references are the set differences of the two key sets.
package xref

import (
	"maps"
	"slices"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/scielo/articlecheck/pkg/document"
)

// TagXref is the citing element.
const TagXref = "xref"

// ElementRef is an element carrying an @id.
type ElementRef struct {
	Tag        string
	ID         string
	Attributes map[string]string
	Owner      *document.Node
	Line       int
}

// ReferenceEdge is one @rid token of an <xref>.
type ReferenceEdge struct {
	SourceTag string
	RID       string
	RefType   string
	Owner     *document.Node
	Line      int
}

// Options configures graph construction.
type Options struct {
	// Tags restricts indexed elements to these names. Empty means every
	// element with an id.
	Tags []string
}

// Graph indexes element ids and xref targets of one document. It is built
// once per run and read-only afterwards.
type Graph struct {
	ElementsByID    map[string][]ElementRef
	ReferencesByRID map[string][]ReferenceEdge

	elements []ElementRef
	edges    []ReferenceEdge
}

// Build scans the document in order. Blank ids and rids are skipped. An
// @rid holding several whitespace-separated ids yields one edge per id.
func Build(doc *document.Document, opts Options) *Graph {
	g := &Graph{
		ElementsByID:    make(map[string][]ElementRef),
		ReferencesByRID: make(map[string][]ReferenceEdge),
	}

	var allow map[string]bool
	if len(opts.Tags) > 0 {
		allow = make(map[string]bool, len(opts.Tags))
		for _, tag := range opts.Tags {
			allow[tag] = true
		}
	}

	for _, el := range doc.Elements() {
		owner := doc.OwnerOf(el)

		if id := strings.TrimSpace(el.SelectAttr("id")); id != "" && (allow == nil || allow[el.Data]) {
			ref := ElementRef{
				Tag:        el.Data,
				ID:         id,
				Attributes: attributes(el),
				Owner:      owner,
				Line:       el.LineNumber,
			}
			g.ElementsByID[id] = append(g.ElementsByID[id], ref)
			g.elements = append(g.elements, ref)
		}

		if el.Data != TagXref {
			continue
		}
		refType := el.SelectAttr("ref-type")
		for _, rid := range strings.Fields(el.SelectAttr("rid")) {
			edge := ReferenceEdge{
				SourceTag: TagXref,
				RID:       rid,
				RefType:   refType,
				Owner:     owner,
				Line:      el.LineNumber,
			}
			g.ReferencesByRID[rid] = append(g.ReferencesByRID[rid], edge)
			g.edges = append(g.edges, edge)
		}
	}

	return g
}

func attributes(el *xmlquery.Node) map[string]string {
	attrs := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		name := a.Name.Local
		if a.Name.Space != "" {
			name = a.Name.Space + ":" + name
		}
		attrs[name] = a.Value
	}
	return attrs
}

// Elements returns every indexed element in document order.
func (g *Graph) Elements() []ElementRef {
	return g.elements
}

// Edges returns every reference edge in document order.
func (g *Graph) Edges() []ReferenceEdge {
	return g.edges
}

// ElementsOf returns the indexed elements owned by node.
func (g *Graph) ElementsOf(node *document.Node) []ElementRef {
	var out []ElementRef
	for _, ref := range g.elements {
		if ref.Owner == node {
			out = append(out, ref)
		}
	}
	return out
}

// EdgesOf returns the reference edges owned by node.
func (g *Graph) EdgesOf(node *document.Node) []ReferenceEdge {
	var out []ReferenceEdge
	for _, edge := range g.edges {
		if edge.Owner == node {
			out = append(out, edge)
		}
	}
	return out
}

// Resolves reports whether some element declares id rid.
func (g *Graph) Resolves(rid string) bool {
	return len(g.ElementsByID[rid]) > 0
}

// InboundCount returns the number of edges citing id.
func (g *Graph) InboundCount(id string) int {
	return len(g.ReferencesByRID[id])
}

// UnresolvedTargets returns the ids that no xref cites, sorted.
func (g *Graph) UnresolvedTargets() []string {
	return difference(g.ElementsByID, g.ReferencesByRID)
}

// DanglingReferences returns the rids that match no element id, sorted.
func (g *Graph) DanglingReferences() []string {
	return difference(g.ReferencesByRID, g.ElementsByID)
}

// UnresolvedTargetsIn returns the uncited ids declared in node, sorted.
func (g *Graph) UnresolvedTargetsIn(node *document.Node) []string {
	seen := make(map[string]bool)
	for _, ref := range g.ElementsOf(node) {
		if g.InboundCount(ref.ID) == 0 {
			seen[ref.ID] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// DanglingReferencesIn returns the unresolved rids cited from node, sorted.
func (g *Graph) DanglingReferencesIn(node *document.Node) []string {
	seen := make(map[string]bool)
	for _, edge := range g.EdgesOf(node) {
		if !g.Resolves(edge.RID) {
			seen[edge.RID] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func difference[A, B any](a map[string]A, b map[string]B) []string {
	out := make([]string, 0)
	for key := range a {
		if _, ok := b[key]; !ok {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}
