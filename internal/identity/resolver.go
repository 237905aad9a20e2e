// Package identity reconciles the authentication service's user id with the
// canonical customer-record id that keys carts and orders. The mapping is
// resolved lazily by email, cached per session, and a stale auth id triggers
// a one-time cart migration.
package identity

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/megamart/orderflow/internal/cart"
	"github.com/megamart/orderflow/pkg/fault"
)

// Session is what the auth service knows about the caller.
type Session struct {
	AuthUserID int64
	Email      string
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type UserDirectory interface {
	ListUsers(ctx context.Context) ([]User, error)
}

type CartStore interface {
	Get(ctx context.Context, customerID int64) (cart.Cart, error)
	AddItem(ctx context.Context, customerID, productID int64, quantity int) error
	Clear(ctx context.Context, customerID int64) error
}

// MappingCache holds email -> canonical id for the session. Implementations
// decide TTL; misses are not errors.
type MappingCache interface {
	Get(ctx context.Context, email string) (int64, bool, error)
	Set(ctx context.Context, email string, customerID int64) error
}

// MigrationResult reports what a cart migration actually did. Failed lists
// product ids whose add to the new cart failed; those items stay in the old
// cart only if the final delete also failed.
type MigrationResult struct {
	Merged bool
	Moved  int
	Failed []int64
	Errors []error
}

// Err folds per-item failures into a PartialFailure, or nil if everything
// moved cleanly.
func (r MigrationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	failed := make([]string, len(r.Failed))
	for i, id := range r.Failed {
		failed[i] = strconv.FormatInt(id, 10)
	}
	return &fault.PartialFailureError{Op: "cart migration", Failed: failed, Errs: r.Errors}
}

type Resolver struct {
	log       *slog.Logger
	users     UserDirectory
	carts     CartStore
	cache     MappingCache
	onMigrate func()
}

func NewResolver(log *slog.Logger, users UserDirectory, carts CartStore, cache MappingCache) *Resolver {
	return &Resolver{log: log, users: users, carts: carts, cache: cache}
}

// OnMigrate registers a callback fired after each merged cart migration,
// used for instrumentation.
func (r *Resolver) OnMigrate(fn func()) { r.onMigrate = fn }

// Resolve maps the session to the canonical customer id. On a cache miss the
// full customer-record list is scanned by email (case-insensitive); when the
// session's auth id differs from the resolved id, the old id's cart is merged
// into the canonical one before returning.
func (r *Resolver) Resolve(ctx context.Context, s Session) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(s.Email))
	if email == "" {
		return 0, fault.Invalid("email", "session email is required")
	}

	if id, ok, err := r.cache.Get(ctx, email); err != nil {
		r.log.Warn("identity cache read failed", "email", email, "err", err)
	} else if ok {
		return id, nil
	}

	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	var canonical int64
	for _, u := range users {
		if strings.EqualFold(u.Email, s.Email) {
			canonical = u.ID
			break
		}
	}
	if canonical == 0 {
		return 0, fault.NotFound("customer record", s.Email)
	}

	if err := r.cache.Set(ctx, email, canonical); err != nil {
		r.log.Warn("identity cache write failed", "email", email, "err", err)
	}

	if s.AuthUserID != 0 && s.AuthUserID != canonical {
		res := r.MigrateCart(ctx, s.AuthUserID, canonical)
		if err := res.Err(); err != nil {
			r.log.Warn("cart migration degraded", "from", s.AuthUserID, "to", canonical, "err", err)
		} else if res.Merged {
			r.log.Info("cart migrated", "from", s.AuthUserID, "to", canonical, "items", res.Moved)
		}
		if res.Merged && r.onMigrate != nil {
			r.onMigrate()
		}
	}
	return canonical, nil
}

// MigrateCart merges oldID's cart into newID's and deletes the old cart.
// Per-item adds are best-effort: one failing item does not stop the rest, and
// a failed delete of the old cart does not roll anything back. Only carries
// productId+quantity, so price-at-add-time data is re-derived by the cart
// service. Not atomic: a crash mid-way can leave items under both ids.
func (r *Resolver) MigrateCart(ctx context.Context, oldID, newID int64) MigrationResult {
	var res MigrationResult

	old, err := r.carts.Get(ctx, oldID)
	if err != nil {
		if fault.IsNotFound(err) {
			return res
		}
		res.Errors = append(res.Errors, err)
		return res
	}
	if old.Empty() {
		return res
	}

	for _, item := range old.Items {
		if err := r.carts.AddItem(ctx, newID, item.ProductID, item.Quantity); err != nil {
			r.log.Error("cart item migration failed", "product_id", item.ProductID, "err", err)
			res.Failed = append(res.Failed, item.ProductID)
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Moved++
	}
	res.Merged = res.Moved > 0

	if err := r.carts.Clear(ctx, oldID); err != nil {
		r.log.Error("old cart delete failed", "customer_id", oldID, "err", err)
		res.Errors = append(res.Errors, err)
	}
	return res
}
