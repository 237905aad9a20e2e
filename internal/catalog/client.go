package catalog

import (
	"context"
	"fmt"

	"github.com/megamart/orderflow/pkg/httpx"
)

type Client struct {
	http *httpx.Client
}

func NewClient(http *httpx.Client) *Client {
	return &Client{http: http}
}

func (c *Client) Get(ctx context.Context, productID int64) (Product, error) {
	var out Product
	if err := c.http.Get(ctx, fmt.Sprintf("/products/%d", productID), &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

// AdjustStock reads the current product and writes it back with the stock
// delta applied. The product service offers no atomic increment, so two
// concurrent adjustments can race; restock accepts that (last write wins).
func (c *Client) AdjustStock(ctx context.Context, productID int64, delta int) error {
	p, err := c.Get(ctx, productID)
	if err != nil {
		return err
	}
	p.Stock += delta
	return c.http.Put(ctx, fmt.Sprintf("/products/%d", productID), p, nil)
}
