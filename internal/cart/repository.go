// Package cart stores customer carts: Mongo-backed persistence with a Redis
// read cache in front of it.
package cart

import (
	"context"
	"errors"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// Repository defines the persistence operations the cart service needs.
// Consumers define this interface, not the MongoDB implementation.
type Repository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, line domain.CartLine) error
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	DeleteCart(ctx context.Context, userID string) error
}
