package cart

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

func (c *Client) Get(ctx context.Context, customerID int64) (Cart, error) {
	var out Cart
	if err := c.http.Get(ctx, fmt.Sprintf("/cart/%d", customerID), &out); err != nil {
		return Cart{}, err
	}
	return out, nil
}

// AddItem carries only productId and quantity; the cart service re-prices the
// line, so price-at-add-time data does not survive a migration.
func (c *Client) AddItem(ctx context.Context, customerID, productID int64, quantity int) error {
	body := map[string]any{"productId": productID, "quantity": quantity}
	return c.http.Post(ctx, fmt.Sprintf("/cart/%d/items", customerID), body, nil)
}

func (c *Client) UpdateItem(ctx context.Context, customerID, itemID int64, quantity int) error {
	body := map[string]any{"quantity": quantity}
	return c.http.Patch(ctx, fmt.Sprintf("/cart/%d/items/%d", customerID, itemID), body, nil)
}

func (c *Client) RemoveItem(ctx context.Context, customerID, itemID int64) error {
	return c.http.Delete(ctx, fmt.Sprintf("/cart/%d/items/%d", customerID, itemID))
}

// Clear deletes the whole cart.
func (c *Client) Clear(ctx context.Context, customerID int64) error {
	return c.http.Delete(ctx, fmt.Sprintf("/cart/%d", customerID))
}
