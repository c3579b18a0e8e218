// Package pricing holds the pure money arithmetic shared by carts and
// orders: price snapshots, line subtotals and totals.
package pricing

// Line is anything priced per unit and counted
type Line interface {
	UnitPrice() Money
	Count() int
}

// Snapshot freezes a catalog price for a cart line or order item. Later
// catalog changes never reach a snapshot.
func Snapshot(current Money) Money {
	return NewMoney(current.Decimal())
}

// Subtotal is price × quantity
func Subtotal(price Money, quantity int) Money {
	return price.Times(quantity)
}

// Total sums the subtotals of lines. An empty set totals zero.
func Total[L Line](lines []L) Money {
	var total Money
	for _, l := range lines {
		total = total.Add(Subtotal(l.UnitPrice(), l.Count()))
	}
	return total
}
