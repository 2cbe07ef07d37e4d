package document

import (
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Kind distinguishes the main article from sub-articles.
type Kind string

// Node kinds.
const (
	KindArticle    Kind = "article"
	KindSubArticle Kind = "sub-article"
)

// Context identifies the node that owns a checked element. It is copied into
// every diagnostic so reports can be grouped by article or sub-article.
type Context struct {
	Parent            string `json:"parent"`
	ParentID          string `json:"parent_id,omitempty"`
	ParentLang        string `json:"parent_lang,omitempty"`
	ParentArticleType string `json:"parent_article_type,omitempty"`
}

// Node is the article or one (possibly nested) sub-article.
type Node struct {
	doc *Document
	el  *xmlquery.Node

	kind        Kind
	id          string
	hasID       bool
	lang        string
	hasLang     bool
	articleType string

	parent      *Node
	subArticles []*Node
}

// Kind returns whether this is the article or a sub-article.
func (n *Node) Kind() Kind {
	return n.kind
}

// ID returns the node @id. The second result is false when the attribute is
// absent or blank.
func (n *Node) ID() (string, bool) {
	return n.id, n.hasID
}

// Lang returns the node @xml:lang. The second result is false when the
// attribute is absent or blank.
func (n *Node) Lang() (string, bool) {
	return n.lang, n.hasLang
}

// ArticleType returns the @article-type attribute value.
func (n *Node) ArticleType() string {
	return n.articleType
}

// IsTranslation reports whether the node is a translation sub-article.
func (n *Node) IsTranslation() bool {
	return n.kind == KindSubArticle && n.articleType == ArticleTypeTranslation
}

// Parent returns the enclosing node, or nil for the article.
func (n *Node) Parent() *Node {
	return n.parent
}

// Element returns the <article> or <sub-article> element.
func (n *Node) Element() *xmlquery.Node {
	return n.el
}

// Document returns the document the node belongs to.
func (n *Node) Document() *Document {
	return n.doc
}

// SubArticles returns the direct sub-articles of this node in document order.
func (n *Node) SubArticles() []*Node {
	return n.subArticles
}

// Translations returns the direct sub-articles that translate this node.
func (n *Node) Translations() []*Node {
	var out []*Node
	for _, sub := range n.subArticles {
		if sub.IsTranslation() {
			out = append(out, sub)
		}
	}
	return out
}

// NotTranslations returns the direct sub-articles that are not translations,
// such as peer reviews or attached works.
func (n *Node) NotTranslations() []*Node {
	var out []*Node
	for _, sub := range n.subArticles {
		if !sub.IsTranslation() {
			out = append(out, sub)
		}
	}
	return out
}

// Front returns <front> for the article and <front-stub> (falling back to
// <front>) for sub-articles. It returns nil when the section is absent.
func (n *Node) Front() *xmlquery.Node {
	if n.kind == KindSubArticle {
		if stub := n.child("front-stub"); stub != nil {
			return stub
		}
	}
	return n.child("front")
}

// Body returns the <body> section or nil.
func (n *Node) Body() *xmlquery.Node {
	return n.child("body")
}

// Back returns the <back> section or nil.
func (n *Node) Back() *xmlquery.Node {
	return n.child("back")
}

func (n *Node) child(name string) *xmlquery.Node {
	for c := n.el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			return c
		}
	}
	return nil
}

// Context returns the diagnostic context for elements owned by this node.
func (n *Node) Context() Context {
	return Context{
		Parent:            string(n.kind),
		ParentID:          n.id,
		ParentLang:        n.lang,
		ParentArticleType: n.articleType,
	}
}

// Owns reports whether el belongs to this node rather than to a nested
// sub-article.
func (n *Node) Owns(el *xmlquery.Node) bool {
	return n.doc.OwnerOf(el) == n
}

// Find evaluates a compiled XPath expression relative to top (the node
// element when top is nil) and keeps only matches owned by n.
func (n *Node) Find(top *xmlquery.Node, expr *xpath.Expr) []*xmlquery.Node {
	if top == nil {
		top = n.el
	}
	var out []*xmlquery.Node
	for _, el := range xmlquery.QuerySelectorAll(top, expr) {
		if n.Owns(el) {
			out = append(out, el)
		}
	}
	return out
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the node's descendants.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, sub := range n.subArticles {
		sub.Walk(fn)
	}
}
