package purchase

import "context"

// Repository defines the interface for memorial purchase persistence
type Repository interface {
	// Create creates a new purchase
	Create(ctx context.Context, p *MemorialPurchase) error

	// Get retrieves a purchase by ID
	Get(ctx context.Context, id string) (*MemorialPurchase, error)

	// GetByGatewayOrderID retrieves a purchase by gateway order id
	GetByGatewayOrderID(ctx context.Context, orderID string) (*MemorialPurchase, error)

	// Update persists all mutable fields of the purchase
	Update(ctx context.Context, p *MemorialPurchase) error
}
