package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/internal/app/service"
	apperrors "github.com/ikkim/must-canteen/internal/errors"
)

// CatalogController serves read-only catalog queries. They need no session.
type CatalogController struct {
	catalog service.CatalogService
}

func NewCatalogController(catalog service.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// ListStalls returns every stall, or only one cuisine with ?cuisine=
// GET /api/v1/stalls
func (ctrl *CatalogController) ListStalls(c *gin.Context) {
	if cuisine := c.Query("cuisine"); cuisine != "" {
		stalls := ctrl.catalog.StallsByCuisine(cuisine)
		c.JSON(http.StatusOK, gin.H{"stalls": stalls, "count": len(stalls)})
		return
	}
	stalls := ctrl.catalog.Stalls()
	c.JSON(http.StatusOK, gin.H{"stalls": stalls, "count": len(stalls)})
}

// GetStall returns one stall with its menu and reviews
// GET /api/v1/stalls/:id
func (ctrl *CatalogController) GetStall(c *gin.Context) {
	stall, err := ctrl.catalog.StallDetail(c.Param("id"))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "stall", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stall": stall})
}

// GetDish returns one dish with its stall
// GET /api/v1/dishes/:id
func (ctrl *CatalogController) GetDish(c *gin.Context) {
	dish, err := ctrl.catalog.DishDetail(c.Param("id"))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "dish", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dish": dish})
}

// Search matches stalls and dishes case-insensitively
// GET /api/v1/search?q=
func (ctrl *CatalogController) Search(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": ctrl.catalog.Search(c.Query("q"))})
}

// ListCuisines returns the distinct cuisine types in catalog order
// GET /api/v1/cuisines
func (ctrl *CatalogController) ListCuisines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cuisines": ctrl.catalog.Cuisines()})
}

// Leaderboard ranks stalls or dishes by rating, popularity or price
// GET /api/v1/leaderboard/:kind?metric=rating
func (ctrl *CatalogController) Leaderboard(c *gin.Context) {
	kind := service.LeaderboardKind(c.Param("kind"))
	metric := service.LeaderboardMetric(c.DefaultQuery("metric", string(service.MetricRating)))

	entries, err := ctrl.catalog.Leaderboard(kind, metric)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "leaderboard", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":    kind,
		"metric":  metric,
		"entries": entries,
	})
}
