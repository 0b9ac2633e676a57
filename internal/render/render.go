// Package render formats products for people: HTML cards and browse
// pages for the web UI, and markdown for MCP clients.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mfenderov/shelf/internal/catalog"
	"github.com/mfenderov/shelf/internal/normalizer"
	"github.com/mfenderov/shelf/pkg/models"
)

// View selects the browse page layout.
type View string

const (
	ViewGrid  View = "grid"
	ViewTable View = "table"
)

// ParseView maps a query parameter to a View, defaulting to the grid.
func ParseView(s string) View {
	if View(strings.ToLower(strings.TrimSpace(s))) == ViewTable {
		return ViewTable
	}
	return ViewGrid
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"paragraphs": paragraphs,
}).ParseFS(templateFS, "templates/*.html"))

// productView is a product with its derived sections resolved once.
type productView struct {
	models.Product
	Sections models.Sections
}

func newProductView(p models.Product) productView {
	return productView{Product: p, Sections: normalizer.SectionsOf(p)}
}

// PageData is everything the browse page shows.
type PageData struct {
	Title      string
	Query      catalog.Query
	View       View
	Products   []models.Product // the query result
	Categories []string         // choices for the category filter
	Total      int              // catalog size before filtering
}

// Page writes the browse page.
func Page(w io.Writer, data PageData) error {
	views := make([]productView, len(data.Products))
	for i, p := range data.Products {
		views[i] = newProductView(p)
	}
	if data.Title == "" {
		data.Title = "Products"
	}

	err := templates.ExecuteTemplate(w, "page", struct {
		PageData
		Products []productView
	}{data, views})
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// ProductHTML renders one product card.
func ProductHTML(p models.Product) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "card", newProductView(p)); err != nil {
		return "", fmt.Errorf("failed to render product: %w", err)
	}
	return buf.String(), nil
}

// ProductMarkdown renders one product card as markdown.
func ProductMarkdown(p models.Product) (string, error) {
	card, err := ProductHTML(p)
	if err != nil {
		return "", err
	}

	markdown, err := htmltomarkdown.ConvertString(card)
	if err != nil {
		return "", fmt.Errorf("failed to convert product to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

// paragraphs splits text on blank lines and joins the lines of each
// paragraph with spaces.
func paragraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		if block = strings.Join(strings.Fields(block), " "); block != "" {
			out = append(out, block)
		}
	}
	return out
}
