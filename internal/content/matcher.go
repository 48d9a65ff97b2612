package content

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
)

const xpathPrefix = "xpath:"

// Matcher locates a node in a document snapshot. A miss returns an empty
// selection and means "no data yet", never an error.
type Matcher interface {
	Match(doc *goquery.Document) *goquery.Selection
	String() string
}

// ParseMatcher compiles a CSS selector or an "xpath:"-prefixed expression.
func ParseMatcher(rule string) (Matcher, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, fmt.Errorf("empty selector")
	}

	if expr, ok := strings.CutPrefix(rule, xpathPrefix); ok {
		compiled, err := xpath.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile xpath %q: %w", expr, err)
		}
		return &xpathMatcher{raw: rule, expr: compiled}, nil
	}

	sel, err := cascadia.Compile(rule)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", rule, err)
	}
	return &cssMatcher{raw: rule, sel: sel}, nil
}

// MustMatcher is ParseMatcher for selectors known at compile time.
func MustMatcher(rule string) Matcher {
	m, err := ParseMatcher(rule)
	if err != nil {
		panic(err)
	}
	return m
}

type cssMatcher struct {
	raw string
	sel cascadia.Selector
}

func (m *cssMatcher) Match(doc *goquery.Document) *goquery.Selection {
	return doc.FindMatcher(m.sel).First()
}

func (m *cssMatcher) String() string { return m.raw }

type xpathMatcher struct {
	raw  string
	expr *xpath.Expr
}

func (m *xpathMatcher) Match(doc *goquery.Document) *goquery.Selection {
	if len(doc.Nodes) == 0 {
		return doc.Selection.Slice(0, 0)
	}
	node := htmlquery.QuerySelector(doc.Nodes[0], m.expr)
	if node == nil {
		return doc.Selection.Slice(0, 0)
	}
	return doc.FindNodes(node)
}

func (m *xpathMatcher) String() string { return m.raw }
