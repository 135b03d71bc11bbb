package cart

import (
	"context"
)

// Repository stores carts for one owner kind. The durable implementation is
// backed by the relational store and keyed by account identifier; the
// ephemeral implementation is TTL-bound and keyed by session identifier.
// Find returns shared.ErrNotFound for missing or expired carts; only active
// carts are visible through Find.
type Repository interface {
	Find(ctx context.Context, key Key) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, key Key) error
}

// PromotionRepository looks up promotion codes. FindActiveByCode sees only
// active promotions and returns shared.ErrNotFound otherwise.
type PromotionRepository interface {
	FindActiveByCode(ctx context.Context, code string) (*Promotion, error)
}

// StoreMux routes cart persistence to the backend matching the key's owner
// kind. It is itself a Repository.
type StoreMux struct {
	session Repository
	account Repository
}

// NewStoreMux builds a mux over the session (ephemeral) and account
// (durable) backends.
func NewStoreMux(session, account Repository) *StoreMux {
	return &StoreMux{session: session, account: account}
}

func (m *StoreMux) backend(key Key) Repository {
	if key.Kind == OwnerSession {
		return m.session
	}
	return m.account
}

// Find fetches the cart for the key from the matching backend
func (m *StoreMux) Find(ctx context.Context, key Key) (*Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return m.backend(key).Find(ctx, key)
}

// Save persists the cart through the backend matching its owner key
func (m *StoreMux) Save(ctx context.Context, c *Cart) error {
	key := c.Key()
	if err := key.Validate(); err != nil {
		return err
	}
	return m.backend(key).Save(ctx, c)
}

// Delete removes the cart for the key from the matching backend
func (m *StoreMux) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return m.backend(key).Delete(ctx, key)
}

// Ensure StoreMux implements Repository
var _ Repository = (*StoreMux)(nil)
