package page

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Matcher decides whether a link's visible text is the one we want
type Matcher struct {
	Label string
	match func(text string) bool
}

// Matches reports whether normalized text satisfies m
func (m Matcher) Matches(text string) bool {
	return m.match != nil && m.match(NormalizeText(text))
}

// Exact matches the whole normalized text
func Exact(label string) Matcher {
	return Matcher{Label: label, match: func(text string) bool { return text == label }}
}

// Contains matches a substring of the normalized text
func Contains(label string) Matcher {
	return Matcher{Label: label, match: func(text string) bool { return strings.Contains(text, label) }}
}

// Pattern matches a regular expression against the normalized text
func Pattern(re *regexp.Regexp, label string) Matcher {
	return Matcher{Label: label, match: re.MatchString}
}

// Link is an anchor found on a snapshot. Portal anchors mostly carry
// href="#" and navigate through Action, the onclick script.
type Link struct {
	Scope  Scope
	Text   string
	Href   string
	Action string
}

// NormalizeText collapses whitespace the same way XPath normalize-space does.
// Only ASCII whitespace counts; U+3000 is kept.
func NormalizeText(s string) string {
	return strings.Join(strings.FieldsFunc(s, isXMLSpace), " ")
}

func isXMLSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// Parse builds a snapshot document from page HTML
func Parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// FindLink returns the first anchor inside scope whose text satisfies m
func FindLink(doc *goquery.Document, scope Scope, m Matcher) (Link, bool) {
	root := doc.Selection
	if scope.CSS != "" {
		root = doc.Find(scope.CSS)
	}

	var found Link
	ok := false
	root.Find("a").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := NormalizeText(s.Text())
		if !m.Matches(text) {
			return true
		}
		href, _ := s.Attr("href")
		action, _ := s.Attr("onclick")
		found = Link{Scope: scope, Text: text, Href: href, Action: action}
		ok = true
		return false
	})
	return found, ok
}

// XPath returns an expression selecting the first link, in document order,
// with the link's normalized text. FindLink picks the same node.
func (l Link) XPath() string {
	return "(" + l.Scope.XPath + "//a[normalize-space(.)=" + xpathLiteral(l.Text) + "])[1]"
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	return `concat("` + strings.Join(parts, `", '"', "`) + `")`
}
