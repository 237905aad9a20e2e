// Package cart talks to the cart service. Carts are keyed by the canonical
// customer id; the identity resolver guarantees callers pass the right one.
package cart

import "github.com/shopspring/decimal"

type Item struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type Cart struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"userId"`
	Items      []Item          `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func (c Cart) Empty() bool { return len(c.Items) == 0 }
