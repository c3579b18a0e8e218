package models

import (
	"time"

	"github.com/google/uuid"

	"food-marketplace/internal/pricing"
)

// Cart is the per-customer staging area for dishes
type Cart struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CartLine is one dish in a cart. Price is the snapshot taken when the
// dish was first added.
type CartLine struct {
	ID        uuid.UUID     `json:"id"`
	CartID    uuid.UUID     `json:"cart_id"`
	DishID    uuid.UUID     `json:"dish_id"`
	Quantity  int           `json:"quantity"`
	Price     pricing.Money `json:"price"`
	CreatedAt time.Time     `json:"created_at"`
}

func (l CartLine) UnitPrice() pricing.Money { return l.Price }
func (l CartLine) Count() int               { return l.Quantity }

// CartLineView adds the derived subtotal
type CartLineView struct {
	CartLine
	Subtotal pricing.Money `json:"subtotal"`
}

// CartView is a cart with its lines and derived total
type CartView struct {
	Cart
	Items []CartLineView `json:"items"`
	Total pricing.Money  `json:"total"`
}

// NewCartView computes subtotals and the total for lines
func NewCartView(cart Cart, lines []CartLine) CartView {
	items := make([]CartLineView, 0, len(lines))
	for _, l := range lines {
		items = append(items, CartLineView{
			CartLine: l,
			Subtotal: pricing.Subtotal(l.Price, l.Quantity),
		})
	}
	return CartView{
		Cart:  cart,
		Items: items,
		Total: pricing.Total(lines),
	}
}
