package memorial

import (
	"context"

	"github.com/qripge/qrip-backend/internal/types"
)

// Repository defines the interface for memorial persistence
type Repository interface {
	// Create creates a new memorial
	Create(ctx context.Context, m *Memorial) error

	// Get retrieves a memorial by ID
	Get(ctx context.Context, id string) (*Memorial, error)

	// ListActiveWithPurchase returns every active memorial that has a
	// linked purchase. Input set for the access reconciler.
	ListActiveWithPurchase(ctx context.Context) ([]*Memorial, error)

	// UpdateAccess sets the memorial's visibility and payment status in
	// one write. Used by the reconciler to downgrade expired memorials.
	UpdateAccess(ctx context.Context, id string, status types.MemorialStatus, paymentStatus types.MemorialPaymentStatus) error

	// Update persists all mutable fields of the memorial
	Update(ctx context.Context, m *Memorial) error
}
