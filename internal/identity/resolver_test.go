package identity

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/megamart/orderflow/internal/cart"
	"github.com/megamart/orderflow/pkg/fault"
)

type fakeDirectory struct {
	users []User
	calls int
	err   error
}

func (d *fakeDirectory) ListUsers(ctx context.Context) ([]User, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.users, nil
}

type fakeCarts struct {
	carts    map[int64]*cart.Cart
	addErrs  map[int64]error // productID -> error
	clearErr error
	getErr   error
	cleared  []int64
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{carts: map[int64]*cart.Cart{}, addErrs: map[int64]error{}}
}

func (f *fakeCarts) Get(ctx context.Context, customerID int64) (cart.Cart, error) {
	if f.getErr != nil {
		return cart.Cart{}, f.getErr
	}
	c, ok := f.carts[customerID]
	if !ok {
		return cart.Cart{}, fault.NotFound("cart", "")
	}
	return *c, nil
}

func (f *fakeCarts) AddItem(ctx context.Context, customerID, productID int64, quantity int) error {
	if err := f.addErrs[productID]; err != nil {
		return err
	}
	c, ok := f.carts[customerID]
	if !ok {
		c = &cart.Cart{CustomerID: customerID}
		f.carts[customerID] = c
	}
	c.Items = append(c.Items, cart.Item{ProductID: productID, Quantity: quantity})
	return nil
}

func (f *fakeCarts) Clear(ctx context.Context, customerID int64) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = append(f.cleared, customerID)
	delete(f.carts, customerID)
	return nil
}

type fakeCache struct {
	m      map[string]int64
	getErr error
}

func newFakeCache() *fakeCache { return &fakeCache{m: map[string]int64{}} }

func (c *fakeCache) Get(ctx context.Context, email string) (int64, bool, error) {
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	id, ok := c.m[email]
	return id, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, email string, customerID int64) error {
	c.m[email] = customerID
	return nil
}

func newTestResolver(dir *fakeDirectory, carts *fakeCarts, cache *fakeCache) *Resolver {
	return NewResolver(slog.New(slog.DiscardHandler), dir, carts, cache)
}

func item(productID int64, qty int) cart.Item {
	return cart.Item{ProductID: productID, Quantity: qty, LineTotal: decimal.NewFromInt(int64(qty) * 100)}
}

func TestResolveCachesAndMatchesCaseInsensitive(t *testing.T) {
	dir := &fakeDirectory{users: []User{{ID: 9, Email: "Jane@Example.com"}}}
	carts := newFakeCarts()
	cache := newFakeCache()
	r := newTestResolver(dir, carts, cache)

	id, err := r.Resolve(context.Background(), Session{AuthUserID: 9, Email: "jane@example.COM"})
	if err != nil {
		t.Fatal(err)
	}
	if id != 9 {
		t.Fatalf("id: got %d, want 9", id)
	}

	// Second resolve must hit the cache, not the directory.
	if _, err := r.Resolve(context.Background(), Session{AuthUserID: 9, Email: "jane@example.com"}); err != nil {
		t.Fatal(err)
	}
	if dir.calls != 1 {
		t.Errorf("directory calls: got %d, want 1", dir.calls)
	}
}

func TestResolveUnknownEmail(t *testing.T) {
	dir := &fakeDirectory{users: []User{{ID: 1, Email: "other@example.com"}}}
	r := newTestResolver(dir, newFakeCarts(), newFakeCache())

	_, err := r.Resolve(context.Background(), Session{AuthUserID: 1, Email: "missing@example.com"})
	if !fault.IsNotFound(err) {
		t.Fatalf("got %v, want NotFound", err)
	}
}

func TestResolveTriggersMigrationOnIDMismatch(t *testing.T) {
	dir := &fakeDirectory{users: []User{{ID: 7, Email: "c@example.com"}}}
	carts := newFakeCarts()
	carts.carts[3] = &cart.Cart{CustomerID: 3, Items: []cart.Item{item(1, 2), item(2, 1)}}
	r := newTestResolver(dir, carts, newFakeCache())

	id, err := r.Resolve(context.Background(), Session{AuthUserID: 3, Email: "c@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if id != 7 {
		t.Fatalf("id: got %d, want 7", id)
	}
	merged := carts.carts[7]
	if merged == nil || len(merged.Items) != 2 {
		t.Fatalf("migrated cart: %+v", merged)
	}
	if _, stillThere := carts.carts[3]; stillThere {
		t.Error("old cart should be deleted")
	}
}

func TestMigrateCartMergesIntoExistingItems(t *testing.T) {
	carts := newFakeCarts()
	carts.carts[3] = &cart.Cart{CustomerID: 3, Items: []cart.Item{item(1, 2), item(2, 1)}}
	carts.carts[7] = &cart.Cart{CustomerID: 7, Items: []cart.Item{item(5, 4)}}
	r := newTestResolver(&fakeDirectory{}, carts, newFakeCache())

	res := r.MigrateCart(context.Background(), 3, 7)
	if !res.Merged || res.Moved != 2 {
		t.Fatalf("result: %+v", res)
	}
	if len(carts.carts[7].Items) != 3 {
		t.Fatalf("merged cart items: got %d, want 3", len(carts.carts[7].Items))
	}
}

func TestMigrateCartSurvivesDeleteFailure(t *testing.T) {
	carts := newFakeCarts()
	carts.carts[3] = &cart.Cart{CustomerID: 3, Items: []cart.Item{item(1, 2), item(2, 1)}}
	carts.clearErr = fault.Unavailable("cart-service", errors.New("500"))
	r := newTestResolver(&fakeDirectory{}, carts, newFakeCache())

	res := r.MigrateCart(context.Background(), 3, 7)
	if !res.Merged || res.Moved != 2 {
		t.Fatalf("result: %+v", res)
	}
	if len(carts.carts[7].Items) != 2 {
		t.Fatal("new cart must still reflect migrated items")
	}
	if res.Err() == nil {
		t.Fatal("delete failure should surface as partial failure")
	}
}

func TestMigrateCartBestEffortPerItem(t *testing.T) {
	carts := newFakeCarts()
	carts.carts[3] = &cart.Cart{CustomerID: 3, Items: []cart.Item{item(1, 2), item(2, 1), item(4, 3)}}
	carts.addErrs[2] = fault.Unavailable("cart-service", errors.New("boom"))
	r := newTestResolver(&fakeDirectory{}, carts, newFakeCache())

	res := r.MigrateCart(context.Background(), 3, 7)
	if res.Moved != 2 {
		t.Fatalf("moved: got %d, want 2", res.Moved)
	}
	if len(res.Failed) != 1 || res.Failed[0] != 2 {
		t.Fatalf("failed: %v", res.Failed)
	}
	var pf *fault.PartialFailureError
	if !errors.As(res.Err(), &pf) {
		t.Fatalf("Err(): got %v, want PartialFailure", res.Err())
	}
}

func TestMigrateCartEmptyOldCart(t *testing.T) {
	carts := newFakeCarts()
	carts.carts[3] = &cart.Cart{CustomerID: 3}
	r := newTestResolver(&fakeDirectory{}, carts, newFakeCache())

	res := r.MigrateCart(context.Background(), 3, 7)
	if res.Merged || res.Moved != 0 || res.Err() != nil {
		t.Fatalf("result: %+v", res)
	}
	if len(carts.cleared) != 0 {
		t.Error("empty old cart should not be deleted")
	}
}
