package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/internal/app/service"
)

type FavoritesController struct {
	sessions *service.SessionManager
	catalog  service.CatalogService
}

func NewFavoritesController(sessions *service.SessionManager, catalog service.CatalogService) *FavoritesController {
	return &FavoritesController{sessions: sessions, catalog: catalog}
}

// GetFavorites returns the favorite ids and the stalls and dishes they resolve to.
// Ids no longer in the catalog are skipped in the resolved lists.
// GET /api/v1/favorites
func (ctrl *FavoritesController) GetFavorites(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	favorites := s.Favorites.Favorites()
	stalls := make([]interface{}, 0, len(favorites.Stalls))
	for _, id := range favorites.Stalls {
		if stall, err := ctrl.catalog.StallDetail(id); err == nil {
			stalls = append(stalls, stall)
		}
	}
	dishes := make([]interface{}, 0, len(favorites.Dishes))
	for _, id := range favorites.Dishes {
		if dish, err := ctrl.catalog.DishDetail(id); err == nil {
			dishes = append(dishes, dish)
		}
	}

	respond(c, s, http.StatusOK, gin.H{
		"favorites": favorites,
		"stalls":    stalls,
		"dishes":    dishes,
	})
}

// ToggleStall flips a stall's favorite state
// POST /api/v1/favorites/stalls/:id
func (ctrl *FavoritesController) ToggleStall(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	added, err := s.Favorites.ToggleStall(c.Param("id"))
	if err != nil {
		respondError(c, s, err, "favorites")
		return
	}
	respond(c, s, http.StatusOK, gin.H{"favorite": added})
}

// ToggleDish flips a dish's favorite state
// POST /api/v1/favorites/dishes/:id
func (ctrl *FavoritesController) ToggleDish(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	added, err := s.Favorites.ToggleDish(c.Param("id"))
	if err != nil {
		respondError(c, s, err, "favorites")
		return
	}
	respond(c, s, http.StatusOK, gin.H{"favorite": added})
}
