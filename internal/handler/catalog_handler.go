package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeromwolf/LearnFlow/internal/catalog"
	"github.com/jeromwolf/LearnFlow/internal/middleware"
	"github.com/jeromwolf/LearnFlow/internal/service"
	"github.com/jeromwolf/LearnFlow/pkg/response"
)

// CatalogHandler serves the storefront course listing.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Browse godoc
// @Summary Browse the course catalog
// @Description List published courses filtered by search, category, level and price bucket
// @Tags Catalog
// @Produce json
// @Param search query string false "Search in title, instructor and tags"
// @Param category query string false "Category name or 'all'"
// @Param level query string false "beginner, intermediate, advanced or 'all'"
// @Param price query string false "all, free, under50k, 50k-100k, over100k"
// @Param sort query string false "popularity, rating, recency, price_asc, price_desc"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) Browse(c *gin.Context) {
	sel := catalog.DefaultSelection()
	sel.Search = c.Query("search")
	if v := c.Query("category"); v != "" {
		sel.Category = v
	}
	if v := c.Query("level"); v != "" {
		sel.Level = v
	}
	if v := c.Query("price"); v != "" {
		sel.PriceBucket = catalog.PriceBucket(v)
	}
	if v := c.Query("sort"); v != "" {
		sel.SortKey = catalog.SortKey(v)
	}

	page, hit, err := h.service.Browse(c.Request.Context(), sel)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, page, nil, middleware.ExtractMeta(c))
}

// Categories godoc
// @Summary Category counts
// @Description Course counts per category over the whole published set
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/categories [get]
func (h *CatalogHandler) Categories(c *gin.Context) {
	counts, err := h.service.Counts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}
