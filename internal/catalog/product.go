// Package catalog exposes the slice of the product service the order core
// needs: stock reads and adjustments.
package catalog

import "github.com/shopspring/decimal"

type Product struct {
	ID    int64           `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}
