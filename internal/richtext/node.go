// Package richtext is the rich text surface: an HTML-backed editor
// capability plus the structured document model clients submit.
package richtext

import (
	"fmt"
	"html"
	"strings"
)

// Node is one node in a structured rich-text document tree.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark is a text formatting mark.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// ToHTML renders a document tree to the HTML stored in note content.
func (n Node) ToHTML() string {
	switch n.Type {
	case "doc":
		return renderChildren(n.Content)
	case "paragraph":
		return fmt.Sprintf("<p>%s</p>", renderChildren(n.Content))
	case "heading":
		level := 1
		if lvl, ok := n.Attrs["level"].(float64); ok {
			level = int(lvl)
		}
		if lvl, ok := n.Attrs["level"].(int); ok {
			level = lvl
		}
		if level < 1 || level > 6 {
			level = 1
		}
		return fmt.Sprintf("<h%d>%s</h%d>", level, renderChildren(n.Content), level)
	case "bulletList":
		return fmt.Sprintf("<ul>%s</ul>", renderChildren(n.Content))
	case "orderedList":
		return fmt.Sprintf("<ol>%s</ol>", renderChildren(n.Content))
	case "listItem":
		return fmt.Sprintf("<li>%s</li>", renderChildren(n.Content))
	case "blockquote":
		return fmt.Sprintf("<blockquote>%s</blockquote>", renderChildren(n.Content))
	case "codeBlock":
		var text strings.Builder
		for _, child := range n.Content {
			text.WriteString(child.Text)
		}
		return fmt.Sprintf("<pre><code>%s</code></pre>", html.EscapeString(text.String()))
	case "image":
		src, _ := n.Attrs["src"].(string)
		if src == "" {
			return ""
		}
		return fmt.Sprintf(`<img src="%s">`, html.EscapeString(src))
	case "text":
		return renderTextWithMarks(n.Text, n.Marks)
	case "hardBreak":
		return "<br>"
	case "horizontalRule":
		return "<hr>"
	default:
		// Unknown node type - render content if any
		return renderChildren(n.Content)
	}
}

func renderChildren(content []Node) string {
	var result strings.Builder
	for _, child := range content {
		result.WriteString(child.ToHTML())
	}
	return result.String()
}

// renderTextWithMarks renders text with formatting marks applied outside in.
func renderTextWithMarks(text string, marks []Mark) string {
	if text == "" {
		return ""
	}

	htmlText := html.EscapeString(text)
	for i := len(marks) - 1; i >= 0; i-- {
		switch marks[i].Type {
		case "bold":
			htmlText = fmt.Sprintf("<strong>%s</strong>", htmlText)
		case "italic":
			htmlText = fmt.Sprintf("<em>%s</em>", htmlText)
		case "code":
			htmlText = fmt.Sprintf("<code>%s</code>", htmlText)
		case "strike":
			htmlText = fmt.Sprintf("<s>%s</s>", htmlText)
		case "link":
			href, _ := marks[i].Attrs["href"].(string)
			htmlText = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), htmlText)
		}
	}
	return htmlText
}
