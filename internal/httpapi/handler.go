package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mfenderov/shelf/internal/catalog"
	"github.com/mfenderov/shelf/internal/normalizer"
	"github.com/mfenderov/shelf/internal/render"
	"github.com/mfenderov/shelf/pkg/models"
)

// Handler serves the catalog over HTTP.
type Handler struct {
	catalog *catalog.Catalog
	title   string
}

// NewHandler creates a new HTTP handler over an immutable catalog.
func NewHandler(c *catalog.Catalog, title string) *Handler {
	return &Handler{catalog: c, title: title}
}

// productResponse is a product with its derived sections.
type productResponse struct {
	models.Product
	models.Sections
}

func newProductResponse(p models.Product) productResponse {
	return productResponse{Product: p, Sections: normalizer.SectionsOf(p)}
}

// queryFromRequest reads q, category, sort and order.
func queryFromRequest(c *gin.Context) (catalog.Query, error) {
	return catalog.ParseQuery(c.Query("q"), c.Query("category"), c.Query("sort"), c.Query("order"))
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "shelf",
		"products": h.catalog.Len(),
	})
}

// Index renders the browse page in grid or table view.
func (h *Handler) Index(c *gin.Context) {
	query, err := queryFromRequest(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	err = render.Page(c.Writer, render.PageData{
		Title:      h.title,
		Query:      query,
		View:       render.ParseView(c.Query("view")),
		Products:   h.catalog.Query(query),
		Categories: h.catalog.Categories(),
		Total:      h.catalog.Len(),
	})
	if err != nil {
		_ = c.Error(err)
	}
}

// ListProducts returns the products matching the query parameters.
func (h *Handler) ListProducts(c *gin.Context) {
	query, err := queryFromRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products := h.catalog.Query(query)
	response := make([]productResponse, len(products))
	for i, p := range products {
		response[i] = newProductResponse(p)
	}

	c.JSON(http.StatusOK, gin.H{
		"products": response,
		"count":    len(response),
		"total":    h.catalog.Len(),
	})
}

// GetProduct returns one product by ID.
func (h *Handler) GetProduct(c *gin.Context) {
	product, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, newProductResponse(product))
}

// ListCategories returns the distinct categories for the filter control.
func (h *Handler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.catalog.Categories()})
}
