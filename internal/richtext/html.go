package richtext

import (
	"sort"
	"strings"

	xhtml "golang.org/x/net/html"
)

// ImageSources returns the src of every <img> in document order. Empty
// src attributes are skipped.
func ImageSources(content string) []string {
	if content == "" {
		return nil
	}
	doc, err := xhtml.Parse(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var sources []string
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && n.Data == "img" {
			for _, attr := range n.Attr {
				if attr.Key == "src" && attr.Val != "" {
					sources = append(sources, attr.Val)
					break
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return sources
}

// formatFor maps an HTML element to the mark or node type it renders, in
// the structured document vocabulary. Elements with no formatting meaning
// map to "".
func formatFor(n *xhtml.Node) string {
	switch n.Data {
	case "strong", "b":
		return "bold"
	case "em", "i":
		return "italic"
	case "s", "del", "strike":
		return "strike"
	case "code":
		if n.Parent != nil && n.Parent.Data == "pre" {
			return "" // already reported as codeBlock by the pre
		}
		return "code"
	case "a":
		return "link"
	case "ul":
		return "bulletList"
	case "ol":
		return "orderedList"
	case "blockquote":
		return "blockquote"
	case "pre":
		return "codeBlock"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "heading"
	case "img":
		return "image"
	default:
		return ""
	}
}

// ActiveFormats reports which marks and block types appear in the
// document, sorted, deduplicated. The composing surface highlights its
// formatting controls from this.
func ActiveFormats(content string) []string {
	if content == "" {
		return nil
	}
	doc, err := xhtml.Parse(strings.NewReader(content))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode {
			if format := formatFor(n); format != "" {
				seen[format] = struct{}{}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if len(seen) == 0 {
		return nil
	}
	formats := make([]string, 0, len(seen))
	for format := range seen {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// StripTags reduces HTML to its visible text, so substring search matches
// what the user sees rather than markup.
func StripTags(content string) string {
	if content == "" {
		return ""
	}
	doc, err := xhtml.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var text strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			text.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return text.String()
}
