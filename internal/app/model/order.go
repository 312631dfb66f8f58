package model

import "time"

// Order is built from the cart at checkout and not retained afterwards.
type Order struct {
	ID       string     `json:"id"`
	Lines    []CartLine `json:"lines"`
	Total    float64    `json:"total"`
	PlacedAt time.Time  `json:"placed_at"`
}

// OrderReceipt is the gateway acknowledgment.
type OrderReceipt struct {
	OrderID string `json:"order_id"`
}
