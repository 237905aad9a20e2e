package identity

import (
	"context"

	"github.com/megamart/orderflow/pkg/httpx"
)

// Directory lists customer records from the user-admin service.
type Directory struct {
	http *httpx.Client
}

func NewDirectory(http *httpx.Client) *Directory {
	return &Directory{http: http}
}

func (d *Directory) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := d.http.Get(ctx, "/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}
