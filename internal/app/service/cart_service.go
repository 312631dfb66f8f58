package service

import (
	"fmt"
	"sync"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/pkg/logger"
)

// AddOutcome reports what AddItem did to the cart.
type AddOutcome int

const (
	AddBlocked AddOutcome = iota
	AddAdded
	AddIncremented
	AddReplaced
	AddDeclined
)

func (o AddOutcome) String() string {
	switch o {
	case AddAdded:
		return "added"
	case AddIncremented:
		return "incremented"
	case AddReplaced:
		return "replaced"
	case AddDeclined:
		return "declined"
	default:
		return "blocked"
	}
}

// ConfirmFunc asks whether to discard the current stall's cart for a new stall.
// It is called without the cart lock held.
type ConfirmFunc func(currentStallName, newStallName string) bool

// CartService is the single-stall cart of one device session.
type CartService interface {
	AddItem(dish model.DishRef, stallID, stallName string, confirm ConfirmFunc) (AddOutcome, error)
	UpdateQuantity(dishID string, delta int)
	RemoveItem(dishID string)
	Clear()
	// Checkout returns a nil receipt and nil error for an empty cart.
	Checkout() (*model.OrderReceipt, error)
	IsOrdering() bool
	Lines() []model.CartLine
	Total() float64
	Count() int
	Snapshot() model.CartSnapshot
}

type cartService struct {
	mu       sync.Mutex
	lines    []model.CartLine
	ordering bool
	gate     *AuthGate
	gateway  GatewayService
	notifier Notifier
}

func NewCartService(gate *AuthGate, gateway GatewayService, notifier Notifier) CartService {
	return &cartService{gate: gate, gateway: gateway, notifier: notifier}
}

func (s *cartService) AddItem(dish model.DishRef, stallID, stallName string, confirm ConfirmFunc) (AddOutcome, error) {
	if err := s.gate.guard("游客模式无法点餐，请先登录"); err != nil {
		return AddBlocked, err
	}

	s.mu.Lock()
	if len(s.lines) > 0 && s.lines[0].StallID != stallID {
		currentName := s.lines[0].StallName
		s.mu.Unlock()

		accepted := confirm != nil && confirm(currentName, stallName)

		s.mu.Lock()
		// the cart may have changed while the user was deciding
		if len(s.lines) > 0 && s.lines[0].StallID != stallID {
			if !accepted {
				s.mu.Unlock()
				logger.Debug("Stall switch declined", map[string]interface{}{
					"current_stall": currentName,
					"new_stall":     stallName,
				})
				return AddDeclined, nil
			}
			s.lines = []model.CartLine{{Dish: dish, StallID: stallID, StallName: stallName, Quantity: 1}}
			s.mu.Unlock()

			logger.Info("Cart replaced with new stall", map[string]interface{}{
				"stall_id": stallID,
				"dish_id":  dish.ID,
			})
			notifyInfo(s.notifier, fmt.Sprintf("已开始在 %s 的新订单", stallName))
			return AddReplaced, nil
		}
	}
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Dish.ID == dish.ID {
			s.lines[i].Quantity++
			notifySuccess(s.notifier, fmt.Sprintf("又添加了一份 %s", dish.Name))
			return AddIncremented, nil
		}
	}
	s.lines = append(s.lines, model.CartLine{Dish: dish, StallID: stallID, StallName: stallName, Quantity: 1})

	logger.Debug("Cart line added", map[string]interface{}{
		"stall_id": stallID,
		"dish_id":  dish.ID,
		"lines":    len(s.lines),
	})
	notifySuccess(s.notifier, fmt.Sprintf("已添加 %s 到购物车", dish.Name))
	return AddAdded, nil
}

func (s *cartService) UpdateQuantity(dishID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.Dish.ID == dishID {
			line.Quantity += delta
		}
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	s.lines = kept
}

func (s *cartService) RemoveItem(dishID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.Dish.ID != dishID {
			kept = append(kept, line)
		}
	}
	s.lines = kept
}

func (s *cartService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

func (s *cartService) Checkout() (*model.OrderReceipt, error) {
	if err := s.gate.guard("游客模式无法结算，请先登录"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.ordering {
		s.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	submitted := append([]model.CartLine(nil), s.lines...)
	total := sumTotal(submitted)
	s.ordering = true
	s.mu.Unlock()

	logger.Info("Submitting order", map[string]interface{}{
		"stall_id": submitted[0].StallID,
		"lines":    len(submitted),
		"total":    total,
	})
	receipt, err := s.gateway.SubmitOrder(submitted, total)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordering = false

	if err != nil {
		logger.Warn("Order submission failed", map[string]interface{}{
			"error": err.Error(),
		})
		notifyError(s.notifier, "下单失败，请重试。")
		return nil, err
	}

	s.reconcile(submitted)
	notifySuccess(s.notifier, "下单成功！🎉")
	return receipt, nil
}

// reconcile removes the ordered units from the current cart. Lines added while the
// order was in flight survive. Caller holds s.mu.
func (s *cartService) reconcile(submitted []model.CartLine) {
	ordered := make(map[string]int, len(submitted))
	for _, line := range submitted {
		ordered[line.StallID+"/"+line.Dish.ID] += line.Quantity
	}
	kept := s.lines[:0]
	for _, line := range s.lines {
		line.Quantity -= ordered[line.StallID+"/"+line.Dish.ID]
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	s.lines = kept
}

func (s *cartService) IsOrdering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordering
}

func (s *cartService) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.CartLine{}, s.lines...)
}

func (s *cartService) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sumTotal(s.lines)
}

func (s *cartService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sumCount(s.lines)
}

func (s *cartService) Snapshot() model.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := model.CartSnapshot{
		Lines: append([]model.CartLine{}, s.lines...),
		Total: sumTotal(s.lines),
		Count: sumCount(s.lines),
	}
	if len(s.lines) > 0 {
		snap.StallID = s.lines[0].StallID
	}
	return snap
}

func sumTotal(lines []model.CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Subtotal()
	}
	return total
}

func sumCount(lines []model.CartLine) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}
