// Package extract turns raw HTML into the structural facts that layout
// fingerprinting works from: tables with their dimensions, PDF link URLs,
// and the page's extractable text.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/georisk/georisk/internal/layout"
)

// HTML element names the extractor cares about.
const (
	htmlElementTable = "table"
	htmlElementRow   = "tr"
	htmlElementCell  = "td"
	htmlElementHead  = "th"
	htmlElementLink  = "a"
)

// PageStructure contains the structural facts extracted from one page.
//
// Design decision: We return a comprehensive result struct from a single
// parsing pass rather than offering per-fact methods because:
//  1. Single parsing pass is more efficient
//  2. Every caller needs all three facts together anyway
//  3. Related data can be collected together
type PageStructure struct {
	// Tables holds one entry per <table> in document order, each with
	// its row count and the cell count of its first row.
	Tables []layout.Table

	// PDFLinks contains every anchor URL pointing at a PDF document,
	// resolved against the page URL.
	PDFLinks []string

	// Text is the page's extractable text in document order. Callers
	// feed it through canonicalization before hashing, so it is kept
	// raw here.
	Text string
}

// Extractor extracts structural facts from HTML content.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on government sites
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
type Extractor struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative PDF links.
	baseURL *url.URL
}

// NewExtractor creates an extractor for a page served from baseURL.
func NewExtractor(baseURL string) (*Extractor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url %q: %w", baseURL, err)
	}
	return &Extractor{baseURL: u}, nil
}

// Extract parses HTML content and collects tables, PDF links, and text.
func (e *Extractor) Extract(content io.Reader) (*PageStructure, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	result := &PageStructure{
		Tables:   make([]layout.Table, 0),
		PDFLinks: make([]string, 0),
	}

	var textContent strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case htmlElementTable:
				// Nested tables get their own entry when the outer
				// walk reaches them; measureTable skips their rows.
				result.Tables = append(result.Tables, measureTable(n))
			case htmlElementLink:
				if href := getAttr(n, "href"); isPDFLink(href) {
					if resolved := e.resolveURL(href); resolved != "" {
						result.PDFLinks = append(result.PDFLinks, resolved)
					}
				}
			case "script", "style":
				// Script and style bodies are not extractable text.
				return
			}
		case html.TextNode:
			textContent.WriteString(n.Data)
			textContent.WriteString(" ")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	result.Text = textContent.String()
	return result, nil
}

// measureTable computes the dimensions of one <table>: the number of rows
// in its subtree and the cell count (td + th) of the first row. Rows of
// tables nested inside a cell are excluded so each table is measured once.
func measureTable(table *html.Node) layout.Table {
	var t layout.Table
	firstRow := true

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n != table && n.Type == html.ElementNode && n.Data == htmlElementTable {
			return
		}
		if n.Type == html.ElementNode && n.Data == htmlElementRow {
			t.Rows++
			if firstRow {
				t.Cols = countCells(n)
				firstRow = false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return t
}

// countCells counts the direct td/th children of a row. A spanning cell
// counts once regardless of its colspan, so the column figure tracks the
// markup rather than the rendered grid.
func countCells(row *html.Node) int {
	count := 0
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data != htmlElementCell && c.Data != htmlElementHead {
			continue
		}
		count++
	}
	return count
}

// isPDFLink reports whether an href points at a PDF document. The check
// ignores query strings and fragments so links like "report.pdf?v=2"
// still count.
func isPDFLink(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// resolveURL resolves a relative URL against the page URL.
func (e *Extractor) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "data:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return e.baseURL.ResolveReference(u).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
