package source

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	skippedElements = map[atom.Atom]bool{
		atom.Script:   true,
		atom.Style:    true,
		atom.Noscript: true,
		atom.Nav:      true,
		atom.Header:   true,
		atom.Footer:   true,
		atom.Form:     true,
		atom.Svg:      true,
		atom.Template: true,
	}

	blockElements = map[atom.Atom]bool{
		atom.P: true, atom.Div: true, atom.Li: true, atom.Br: true, atom.Tr: true,
		atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
		atom.Section: true, atom.Article: true, atom.Details: true, atom.Summary: true,
		atom.Dt: true, atom.Dd: true, atom.Button: true, atom.Table: true, atom.Ul: true, atom.Ol: true,
	}

	questionElements = map[atom.Atom]bool{
		atom.Summary: true, atom.Button: true, atom.Dt: true,
		atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true,
	}

	spaceRun     = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRun = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
)

// FAQItem is one question of an accordion FAQ page
type FAQItem struct {
	Question string
	Answer   string
}

// ExtractHTMLText returns the readable text of an HTML page. Accordion FAQ pages are
// rendered as question/answer pairs; any other page is flattened to paragraphs.
func ExtractHTMLText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse HTML")
	}

	if items := findFAQItems(doc); len(items) > 0 {
		var sb strings.Builder
		for _, item := range items {
			sb.WriteString(item.Question)
			sb.WriteString("\n")
			sb.WriteString(item.Answer)
			sb.WriteString("\n\n")
		}
		return strings.TrimSpace(sb.String()), nil
	}

	return nodeText(doc), nil
}

// ExtractFAQ returns the question/answer pairs of an accordion FAQ page
func ExtractFAQ(r io.Reader) ([]FAQItem, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse HTML")
	}
	return findFAQItems(doc), nil
}

// findFAQItems treats every <details> element and every element whose class mentions
// "accordion-item" as one item. The first summary, button, dt or heading inside is the
// question; the remaining text is the answer.
func findFAQItems(doc *html.Node) []FAQItem {
	var items []FAQItem

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isAccordionItem(n) {
			if item, ok := splitFAQItem(n); ok {
				items = append(items, item)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return items
}

func isAccordionItem(n *html.Node) bool {
	if n.DataAtom == atom.Details {
		return true
	}
	for _, class := range strings.Fields(attr(n, "class")) {
		if class == "accordion-item" || class == "faq-item" {
			return true
		}
	}
	return false
}

func splitFAQItem(item *html.Node) (FAQItem, bool) {
	question := findFirst(item, func(n *html.Node) bool {
		return n.Type == html.ElementNode && questionElements[n.DataAtom]
	})
	if question == nil {
		return FAQItem{}, false
	}

	q := nodeText(question)
	full := nodeText(item)
	answer := strings.TrimSpace(strings.TrimPrefix(full, q))
	if q == "" || answer == "" {
		return FAQItem{}, false
	}
	return FAQItem{Question: q, Answer: answer}, true
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if skippedElements[n.DataAtom] {
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteString("\n")
		}
	}
	walk(n)

	return cleanText(sb.String())
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = spaceRun.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")

	s = blankLineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// ExtractLinks returns the absolute URLs of all anchors matching pattern, in document
// order and without duplicates.
func ExtractLinks(r io.Reader, base *url.URL, pattern *regexp.Regexp) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse HTML")
	}

	seen := make(map[string]struct{})
	var links []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href := attr(n, "href"); href != "" {
				if u, err := base.Parse(href); err == nil {
					link := u.String()
					if _, ok := seen[link]; !ok && pattern.MatchString(link) {
						seen[link] = struct{}{}
						links = append(links, link)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}
