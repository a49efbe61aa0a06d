package domain

import "time"

// OrderLine captures the cart line state at checkout time.
type OrderLine struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
}

type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	Lines      []OrderLine `json:"lines"`
	TotalCents int64       `json:"totalCents"`
	Status     string      `json:"status"`
	PlacedAt   time.Time   `json:"placedAt"`
}
