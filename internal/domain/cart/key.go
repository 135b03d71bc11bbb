package cart

import (
	"github.com/storefront/backend/internal/domain/shared"
)

// OwnerKind distinguishes the two cart storage backends
type OwnerKind string

const (
	// OwnerSession marks an ephemeral cart owned by an anonymous session
	OwnerSession OwnerKind = "session"
	// OwnerAccount marks a durable cart owned by an authenticated account
	OwnerAccount OwnerKind = "account"
)

// IsValid checks if the kind is a known OwnerKind
func (k OwnerKind) IsValid() bool {
	return k == OwnerSession || k == OwnerAccount
}

// Key identifies a cart: exactly one of a session identifier or an account
// identifier. It is resolved once per request and selects the storage backend.
type Key struct {
	Kind OwnerKind
	ID   string
}

// SessionKey builds a key for an anonymous session cart
func SessionKey(sessionID string) Key {
	return Key{Kind: OwnerSession, ID: sessionID}
}

// AccountKey builds a key for an authenticated account cart
func AccountKey(accountID string) Key {
	return Key{Kind: OwnerAccount, ID: accountID}
}

// Validate checks the key carries a kind and an identifier
func (k Key) Validate() error {
	if !k.Kind.IsValid() {
		return shared.NewDomainError("INVALID_CART_KEY", "Cart owner kind must be session or account")
	}
	if k.ID == "" {
		return shared.NewDomainError("INVALID_CART_KEY", "Cart owner identifier cannot be empty")
	}
	return nil
}

// String returns the canonical form, e.g. "session:abc" or "account:42".
// Used as the per-cart mutual exclusion key.
func (k Key) String() string {
	return string(k.Kind) + ":" + k.ID
}
