// Package document exposes the article / sub-article structure of a parsed
// JATS-like document.
//
// A Document is built once from an immutable xmlquery tree. Every element in
// the tree is owned by exactly one Node: the nearest enclosing <article> or
// <sub-article>. Checkers use the owner to decide which configuration scope
// (main text or translation) applies to an element.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Element names that delimit ownership scopes.
const (
	TagArticle    = "article"
	TagSubArticle = "sub-article"
)

// ArticleTypeTranslation marks a sub-article as a translation of its parent.
const ArticleTypeTranslation = "translation"

// ErrNoArticle is returned when the tree has no <article> root element.
var ErrNoArticle = errors.New("document has no <article> root element")

// Document wraps one parsed document tree.
type Document struct {
	root    *xmlquery.Node
	article *Node

	// nodes holds article and sub-article nodes in document order.
	nodes []*Node

	// owners maps every element to its owning node.
	owners map[*xmlquery.Node]*Node

	// elements holds every element in document order.
	elements []*xmlquery.Node
}

// Parse parses XML data and builds a Document.
// Line numbers are recorded so diagnostics can point at the source.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.ParseWithOptions(bytes.NewReader(data), xmlquery.ParserOptions{
		WithLineNumbers: true,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return New(root)
}

// New builds a Document from an already parsed tree. The tree must not be
// mutated afterwards.
func New(root *xmlquery.Node) (*Document, error) {
	if root == nil {
		return nil, ErrNoArticle
	}

	articleEl := root
	if root.Type == xmlquery.DocumentNode {
		articleEl = firstElementChild(root)
	}
	if articleEl == nil || articleEl.Type != xmlquery.ElementNode || articleEl.Data != TagArticle {
		return nil, ErrNoArticle
	}

	d := &Document{
		root:   root,
		owners: make(map[*xmlquery.Node]*Node),
	}
	d.article = d.newNode(articleEl, nil)
	d.index(articleEl, d.article)

	return d, nil
}

// index walks the subtree in document order, recording element owners and
// creating sub-article nodes as they are met.
func (d *Document) index(el *xmlquery.Node, owner *Node) {
	d.owners[el] = owner
	d.elements = append(d.elements, el)

	for child := el.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		if child.Data == TagSubArticle {
			sub := d.newNode(child, owner)
			owner.subArticles = append(owner.subArticles, sub)
			d.index(child, sub)
			continue
		}
		d.index(child, owner)
	}
}

func (d *Document) newNode(el *xmlquery.Node, parent *Node) *Node {
	kind := KindArticle
	if el.Data == TagSubArticle {
		kind = KindSubArticle
	}
	n := &Node{
		doc:         d,
		el:          el,
		kind:        kind,
		articleType: el.SelectAttr("article-type"),
		parent:      parent,
	}
	n.id, n.hasID = optionalAttr(el, "id")
	n.lang, n.hasLang = optionalAttr(el, "xml:lang")
	d.nodes = append(d.nodes, n)
	return n
}

// Root returns the underlying document node.
func (d *Document) Root() *xmlquery.Node {
	return d.root
}

// Article returns the main article node.
func (d *Document) Article() *Node {
	return d.article
}

// Nodes returns the article and every sub-article in document order.
func (d *Document) Nodes() []*Node {
	return d.nodes
}

// Elements returns every element of the article subtree in document order.
func (d *Document) Elements() []*xmlquery.Node {
	return d.elements
}

// OwnerOf returns the node owning el, or nil if el is not part of the article.
func (d *Document) OwnerOf(el *xmlquery.Node) *Node {
	if el == nil {
		return nil
	}
	if owner, ok := d.owners[el]; ok {
		return owner
	}
	// Attribute and text nodes are owned by their parent element.
	for p := el.Parent; p != nil; p = p.Parent {
		if owner, ok := d.owners[p]; ok {
			return owner
		}
	}
	return nil
}

// Translations returns every translation node in the document, at any depth.
func (d *Document) Translations() []*Node {
	var out []*Node
	for _, n := range d.nodes {
		if n.IsTranslation() {
			out = append(out, n)
		}
	}
	return out
}

// Languages returns the distinct languages declared by article and
// sub-articles, in document order.
func (d *Document) Languages() []string {
	seen := make(map[string]bool)
	var langs []string
	for _, n := range d.nodes {
		lang, ok := n.Lang()
		if !ok || seen[lang] {
			continue
		}
		seen[lang] = true
		langs = append(langs, lang)
	}
	return langs
}

func firstElementChild(n *xmlquery.Node) *xmlquery.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}
	return nil
}

// optionalAttr reports an attribute value, treating blank values as absent.
func optionalAttr(el *xmlquery.Node, name string) (string, bool) {
	if !el.HasAttr(name) {
		return "", false
	}
	v := strings.TrimSpace(el.SelectAttr(name))
	if v == "" {
		return "", false
	}
	return v, true
}
