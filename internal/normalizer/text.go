package normalizer

import (
	"strings"

	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "summary": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"template": true, "svg": true, "iframe": true,
}

// extractText renders the text of the tree. Text nodes are copied as-is
// and block elements start on their own line; see tidyText for the
// whitespace cleanup applied afterwards.
func extractText(root *html.Node) string {
	if root == nil {
		return ""
	}

	var b strings.Builder
	lineBreak := func() {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			b.WriteString(node.Data)
			return
		case html.ElementNode:
			if skippedElements[node.Data] {
				return
			}
			if node.Data == "br" {
				b.WriteByte('\n')
				return
			}
		}

		block := node.Type == html.ElementNode && blockElements[node.Data]
		if block {
			lineBreak()
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			lineBreak()
		}
	}
	walk(root)

	return tidyText(b.String())
}

// tidyText trims every line and collapses runs of blank lines into one.
func tidyText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
