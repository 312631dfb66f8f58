package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/internal/app/service"
	apperrors "github.com/ikkim/must-canteen/internal/errors"
	"github.com/ikkim/must-canteen/internal/middleware"
)

type CartController struct {
	sessions *service.SessionManager
	catalog  service.CatalogService
}

func NewCartController(sessions *service.SessionManager, catalog service.CatalogService) *CartController {
	return &CartController{sessions: sessions, catalog: catalog}
}

type AddToCartRequest struct {
	DishID string `json:"dish_id" binding:"required"`
	// ConfirmSwitch answers the "start a new order at another stall?" prompt up front.
	ConfirmSwitch bool `json:"confirm_switch"`
}

type UpdateCartRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// GetCart returns the cart with its total and count
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	respond(c, s, http.StatusOK, gin.H{
		"cart":     s.Cart.Snapshot(),
		"ordering": s.Cart.IsOrdering(),
	})
}

// AddItem adds one unit of a dish. Adding from another stall needs confirm_switch.
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请选择菜品")
		return
	}

	dish, err := ctrl.catalog.DishDetail(req.DishID)
	if err != nil {
		respondError(c, s, err, "dish")
		return
	}

	var currentStall string
	outcome, err := s.Cart.AddItem(dish.Dish.Ref(), dish.StallID, dish.StallName, func(current, _ string) bool {
		currentStall = current
		return req.ConfirmSwitch
	})
	if err != nil {
		respondError(c, s, err, "cart")
		return
	}

	if outcome == service.AddDeclined {
		log.Info("Stall switch needs confirmation", map[string]interface{}{
			"dish_id":       req.DishID,
			"current_stall": currentStall,
		})
		respond(c, s, http.StatusConflict, gin.H{
			"error":         apperrors.CartStallConflict,
			"message":       fmt.Sprintf("购物车中已有 %s 的菜品，是否清空并开始在 %s 的新订单？", currentStall, dish.StallName),
			"current_stall": currentStall,
			"new_stall":     dish.StallName,
		})
		return
	}

	respond(c, s, http.StatusOK, gin.H{
		"outcome": outcome.String(),
		"cart":    s.Cart.Snapshot(),
	})
}

// UpdateQuantity adjusts a line by delta; a line reaching zero is removed.
// PATCH /api/v1/cart/items/:dish_id
func (ctrl *CartController) UpdateQuantity(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "数量变化不能为 0")
		return
	}

	s.Cart.UpdateQuantity(c.Param("dish_id"), req.Delta)
	respond(c, s, http.StatusOK, gin.H{"cart": s.Cart.Snapshot()})
}

// RemoveItem deletes a line.
// DELETE /api/v1/cart/items/:dish_id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	s.Cart.RemoveItem(c.Param("dish_id"))
	respond(c, s, http.StatusOK, gin.H{"cart": s.Cart.Snapshot()})
}

// ClearCart empties the cart.
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	s.Cart.Clear()
	respond(c, s, http.StatusOK, gin.H{"cart": s.Cart.Snapshot()})
}

// Checkout submits the cart as one order.
// POST /api/v1/cart/checkout
func (ctrl *CartController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	receipt, err := s.Cart.Checkout()
	if err != nil {
		log.Warn("Checkout failed", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(c, s, err, "checkout")
		return
	}
	if receipt == nil {
		apperrors.RespondWithNotices(c, http.StatusBadRequest, apperrors.CartEmpty, "购物车是空的", s.DrainNotices())
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"order_id": receipt.OrderID,
	})
	respond(c, s, http.StatusOK, gin.H{
		"order_id": receipt.OrderID,
		"cart":     s.Cart.Snapshot(),
	})
}
