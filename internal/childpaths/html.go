package childpaths

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// selectOption is one <option> of a <select>.
type selectOption struct {
	Value string
	Label string
}

func parsePage(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsePage: %w", err)
	}
	return doc, nil
}

// walk visits every element node in document order until visit returns
// false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if n.Type == html.ElementNode && !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// textContent returns the concatenated, trimmed text under n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return strings.TrimSpace(sb.String())
}

// formToken extracts the hidden CSRF input value, or "" when the page has
// none.
func formToken(doc *html.Node) string {
	token := ""
	walk(doc, func(n *html.Node) bool {
		if n.Data == "input" && attr(n, "name") == "_token" {
			token = attr(n, "value")
			return false
		}
		return true
	})
	return token
}

// selectOptions returns the options of the <select> with the given name
// attribute, skipping options without a value.
func selectOptions(doc *html.Node, name string) []selectOption {
	var sel *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Data == "select" && attr(n, "name") == name {
			sel = n
			return false
		}
		return true
	})
	if sel == nil {
		return nil
	}

	var opts []selectOption
	walk(sel, func(n *html.Node) bool {
		if n.Data == "option" {
			value := attr(n, "value")
			if value != "" {
				opts = append(opts, selectOption{Value: value, Label: textContent(n)})
			}
		}
		return true
	})
	return opts
}

// formErrors collects the remote form's validation messages: the text of
// every <li> under an alert-danger or alert-warning block.
func formErrors(doc *html.Node) []string {
	var msgs []string
	walk(doc, func(n *html.Node) bool {
		if hasClass(n, "alert-danger") || hasClass(n, "alert-warning") {
			walk(n, func(li *html.Node) bool {
				if li.Data == "li" {
					if msg := textContent(li); msg != "" {
						msgs = append(msgs, msg)
					}
				}
				return true
			})
		}
		return true
	})
	return msgs
}

// tableRow is one <tr> of the account index table.
type tableRow struct {
	ID    string
	Cells []string
}

// indexRows returns the body rows of the first <table> with class "table".
func indexRows(doc *html.Node) []tableRow {
	var table *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Data == "table" && hasClass(n, "table") {
			table = n
			return false
		}
		return true
	})
	if table == nil {
		return nil
	}

	var rows []tableRow
	walk(table, func(n *html.Node) bool {
		if n.Data == "tr" {
			row := tableRow{ID: attr(n, "id")}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == "td" {
					row.Cells = append(row.Cells, textContent(c))
				}
			}
			if len(row.Cells) > 0 {
				rows = append(rows, row)
			}
		}
		return true
	})
	return rows
}
