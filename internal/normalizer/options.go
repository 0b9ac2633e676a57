package normalizer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mfenderov/shelf/pkg/models"
	"golang.org/x/net/html"
)

var fallbackPricePattern = regexp.MustCompile(`\$\d+(?:\.\d{2})?`)

// pairing state while scanning option elements
const (
	pairNone   = iota
	pairOpen   // a size is waiting for its price
	pairBroken // an empty size; the next price closes it as malformed
)

// selectSizeSelector finds sizes offered as a dropdown, the layout used
// when the page has no size list.
const selectSizeSelector = "select option"

// optionElement is a matched size or price element with its cleaned text.
type optionElement struct {
	node *html.Node
	size bool
	text string
}

// extractOptions reads the size/price options in document order and
// removes every matched element from doc so it does not reappear in the
// leftover text.
//
// A page listing several sizes followed by its single price gives that
// price to every size. Otherwise sizes and prices pair up strictly: a size
// is closed by the next price; a size without one, a price without a size
// and an element with no text each count as one malformed pair and are
// dropped without shifting the remaining pairs. With no size elements at
// all, the entries of a size dropdown share the first price.
func (n *Normalizer) extractOptions(doc *goquery.Document) ([]models.Option, int) {
	elements := n.optionElements(doc)

	var options []models.Option
	var malformed int
	if price, ok := sharedPrice(elements); ok {
		options, malformed = shareOptions(elements[:len(elements)-1], price)
	} else {
		options, malformed = pairOptions(elements)
	}

	if len(options) == 0 {
		if dropdown, price, ok := n.dropdownOptions(doc, elements); ok {
			options = dropdown
			// the shared price was counted as a price without a size
			malformed -= price
		}
	}

	if len(options) == 0 && n.config.FallbackSize != "" {
		if price := fallbackPricePattern.FindString(doc.Text()); price != "" {
			options = append(options, models.Option{Size: n.config.FallbackSize, Price: price})
		}
	}

	for _, e := range elements {
		if e.node.Parent != nil {
			e.node.Parent.RemoveChild(e.node)
		}
	}

	return options, malformed
}

// optionElements collects the outermost size and price elements in
// document order.
func (n *Normalizer) optionElements(doc *goquery.Document) []optionElement {
	var elements []optionElement
	var matched []*html.Node

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		isSize := n.sizes.Match(node)
		isPrice := !isSize && n.prices.Match(node)
		if !isSize && !isPrice {
			return
		}
		if insideAny(node, matched) {
			return
		}
		matched = append(matched, node)
		elements = append(elements, optionElement{node: node, size: isSize, text: cleanText(s.Text())})
	})
	return elements
}

// sharedPrice reports whether the elements are two or more sizes followed
// by exactly one price, and returns that price.
func sharedPrice(elements []optionElement) (optionElement, bool) {
	if len(elements) < 3 {
		return optionElement{}, false
	}
	last := elements[len(elements)-1]
	if last.size {
		return optionElement{}, false
	}
	for _, e := range elements[:len(elements)-1] {
		if !e.size {
			return optionElement{}, false
		}
	}
	return last, true
}

// shareOptions gives price to every size. Empty sizes are malformed; an
// empty price leaves every size without one.
func shareOptions(sizes []optionElement, price optionElement) ([]models.Option, int) {
	options := []models.Option{}
	if price.text == "" {
		return options, len(sizes)
	}
	malformed := 0
	for _, size := range sizes {
		if size.text == "" {
			malformed++
			continue
		}
		options = append(options, models.Option{Size: size.text, Price: price.text})
	}
	return options, malformed
}

// pairOptions closes each size with the next price.
func pairOptions(elements []optionElement) ([]models.Option, int) {
	options := []models.Option{}
	malformed := 0
	state := pairNone
	var pendingSize string

	for _, e := range elements {
		if e.size {
			if state != pairNone {
				malformed++
			}
			if e.text == "" {
				state = pairBroken
				continue
			}
			pendingSize, state = e.text, pairOpen
			continue
		}

		if state == pairOpen && e.text != "" {
			options = append(options, models.Option{Size: pendingSize, Price: e.text})
		} else {
			malformed++
		}
		state = pairNone
	}
	if state != pairNone {
		malformed++
	}
	return options, malformed
}

// dropdownOptions pairs the entries of a size dropdown with the first
// non-empty price when no size element was found. Placeholder entries
// ("Select a size") are skipped. It reports how many matched prices the
// options consumed and removes the dropdown from doc.
func (n *Normalizer) dropdownOptions(doc *goquery.Document, elements []optionElement) ([]models.Option, int, bool) {
	var price string
	for _, e := range elements {
		if e.size {
			return nil, 0, false
		}
		if price == "" {
			price = e.text
		}
	}
	if price == "" {
		return nil, 0, false
	}

	entries := doc.Find(selectSizeSelector)
	options := []models.Option{}
	entries.Each(func(_ int, s *goquery.Selection) {
		size := cleanText(s.Text())
		if size == "" || strings.HasPrefix(size, "Select") {
			return
		}
		options = append(options, models.Option{Size: size, Price: price})
	})
	if len(options) == 0 {
		return nil, 0, false
	}

	entries.Closest("select").Remove()
	return options, 1, true
}

// insideAny reports whether node is a descendant of one of the nodes.
func insideAny(node *html.Node, nodes []*html.Node) bool {
	for p := node.Parent; p != nil; p = p.Parent {
		for _, m := range nodes {
			if p == m {
				return true
			}
		}
	}
	return false
}

// cleanText collapses internal whitespace runs to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
