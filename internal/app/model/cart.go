package model

// DishRef is the part of a dish a cart line needs.
type DishRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageRef string  `json:"image,omitempty"`
}

// CartLine is one dish in the in-progress order.
type CartLine struct {
	Dish      DishRef `json:"dish"`
	StallID   string  `json:"stall_id"`
	StallName string  `json:"stall_name"`
	Quantity  int     `json:"quantity"`
}

// Subtotal is price × quantity.
func (l CartLine) Subtotal() float64 {
	return l.Dish.Price * float64(l.Quantity)
}

// CartSnapshot is a read-only view of the cart with its derived values.
type CartSnapshot struct {
	Lines   []CartLine `json:"lines"`
	StallID string     `json:"stall_id,omitempty"`
	Total   float64    `json:"total"`
	Count   int        `json:"count"`
}
