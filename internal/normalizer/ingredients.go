package normalizer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const ingredientMarkerSelector = "ingredients, h1, h2, h3, h4, h5, h6, dt, summary, strong, b"

// extractIngredients finds the ingredients section, splits it into
// entries and removes it from doc. Entries are whitespace-collapsed;
// blank ones are discarded and counted. Order and duplicates are kept.
func (n *Normalizer) extractIngredients(doc *goquery.Document) ([]string, int) {
	if entries, ok := n.sectionEntries(doc); ok {
		return n.cleanEntries(entries)
	}
	if text, ok := n.cutInlineList(doc.Get(0)); ok {
		return n.cleanEntries(strings.Split(text, n.config.IngredientDelimiter))
	}
	return []string{}, 0
}

// sectionEntries handles markup sections: an <ingredients> element, a
// heading followed by the list, or an inline <strong>Ingredients:</strong>
// label followed by the list.
func (n *Normalizer) sectionEntries(doc *goquery.Document) ([]string, bool) {
	marker := doc.Find(ingredientMarkerSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		switch goquery.NodeName(s) {
		case "ingredients":
			return true
		case "strong", "b":
			return n.label.MatchString(s.Text())
		default:
			return n.keyword.MatchString(s.Text())
		}
	}).First()
	if marker.Length() == 0 {
		return nil, false
	}

	switch goquery.NodeName(marker) {
	case "ingredients":
		entries := n.entriesOf(marker)
		marker.Remove()
		return entries, true

	case "strong", "b":
		return n.labelEntries(marker)
	}

	// "Ingredients: a, b" written inside the heading itself
	if m := n.inlineKey.FindStringSubmatch(marker.Text()); m != nil {
		marker.Remove()
		return strings.Split(m[1], n.config.IngredientDelimiter), true
	}

	next := marker.Next()
	if next.Length() == 0 {
		return nil, false
	}
	entries := n.entriesOf(next)
	marker.Remove()
	next.Remove()
	return entries, true
}

// entriesOf returns one entry per <li> when the section is a list, or
// the delimiter-separated parts of its text otherwise.
func (n *Normalizer) entriesOf(s *goquery.Selection) []string {
	items := s.Find("li")
	if items.Length() > 0 {
		return items.Map(func(_ int, li *goquery.Selection) string {
			return li.Text()
		})
	}
	return strings.Split(n.stripLabel(s.Text()), n.config.IngredientDelimiter)
}

// labelEntries reads the list that follows an inline label: the label's
// sibling nodes up to the next line or block boundary, or else the block
// element right after the label. Only the label and the list are removed;
// the rest of the enclosing element stays in the leftover text.
func (n *Normalizer) labelEntries(label *goquery.Selection) ([]string, bool) {
	node := label.Get(0)

	var taken []*html.Node
	var b strings.Builder
	for sib := node.NextSibling; sib != nil; sib = sib.NextSibling {
		if isBoundary(sib) {
			break
		}
		taken = append(taken, sib)
		b.WriteString(nodeText(sib))
	}

	text := strings.TrimSpace(b.String())
	text = strings.TrimSpace(strings.TrimPrefix(text, ":"))
	if text != "" {
		for _, t := range taken {
			node.Parent.RemoveChild(t)
		}
		label.Remove()
		return strings.Split(text, n.config.IngredientDelimiter), true
	}

	next := label.Next()
	if next.Length() == 0 || !blockElements[goquery.NodeName(next)] {
		return nil, false
	}
	entries := n.entriesOf(next)
	label.Remove()
	next.Remove()
	return entries, true
}

// isBoundary reports whether node ends an inline run of text.
func isBoundary(node *html.Node) bool {
	return node.Type == html.ElementNode && (node.Data == "br" || blockElements[node.Data])
}

// nodeText concatenates the text nodes under node.
func nodeText(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Data
	}
	var b strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

// stripLabel drops a leading "Ingredients:" label.
func (n *Normalizer) stripLabel(text string) string {
	text = strings.TrimSpace(text)
	if loc := n.keyword.FindStringIndex(text); loc != nil && loc[0] == 0 {
		return text[loc[1]:]
	}
	return text
}

// cutInlineList finds "Ingredients: a, b, c" inside a single text node,
// removes it from the node and returns the list part.
func (n *Normalizer) cutInlineList(root *html.Node) (string, bool) {
	var found string
	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if node.Type == html.TextNode {
			loc := n.inlineKey.FindStringSubmatchIndex(node.Data)
			if loc != nil {
				found = node.Data[loc[2]:loc[3]]
				node.Data = node.Data[:loc[0]] + node.Data[loc[1]:]
				return true
			}
			return false
		}
		if node.Type == html.ElementNode && skippedElements[node.Data] {
			return false
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	if root == nil || !walk(root) {
		return "", false
	}
	return found, true
}

func (n *Normalizer) cleanEntries(raw []string) ([]string, int) {
	entries := make([]string, 0, len(raw))
	empty := 0
	for _, entry := range raw {
		entry = cleanText(entry)
		if entry == "" {
			empty++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, empty
}
