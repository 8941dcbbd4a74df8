package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/qripge/qrip-backend/internal/domain/purchase"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/logger"
)

type purchaseRepository struct {
	client *Client
	logger *logger.Logger
}

// NewPurchaseRepository creates a new memorial purchase repository
func NewPurchaseRepository(client *Client, log *logger.Logger) purchase.Repository {
	return &purchaseRepository{
		client: client,
		logger: log,
	}
}

func (r *purchaseRepository) coll() *mongo.Collection {
	return r.client.Collection(CollectionPurchases)
}

// Create creates a new purchase
func (r *purchaseRepository) Create(ctx context.Context, p *purchase.MemorialPurchase) error {
	if _, err := r.coll().InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("A purchase with this id already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create purchase").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// Get retrieves a purchase by ID
func (r *purchaseRepository) Get(ctx context.Context, id string) (*purchase.MemorialPurchase, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByGatewayOrderID retrieves a purchase by gateway order id
func (r *purchaseRepository) GetByGatewayOrderID(ctx context.Context, orderID string) (*purchase.MemorialPurchase, error) {
	return r.findOne(ctx, bson.M{"gateway_order_id": orderID})
}

func (r *purchaseRepository) findOne(ctx context.Context, filter bson.M) (*purchase.MemorialPurchase, error) {
	var p purchase.MemorialPurchase
	err := r.coll().FindOne(ctx, filter).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.NewError("purchase not found").
				WithHint("No purchase matches the given criteria").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch purchase").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

// Update persists all mutable fields of the purchase
func (r *purchaseRepository) Update(ctx context.Context, p *purchase.MemorialPurchase) error {
	p.UpdatedAt = time.Now().UTC()

	res, err := r.coll().ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update purchase").
			WithReportableDetails(map[string]interface{}{"purchase_id": p.ID}).
			Mark(ierr.ErrDatabase)
	}
	if res.MatchedCount == 0 {
		return ierr.NewError("purchase not found").
			WithReportableDetails(map[string]interface{}{"purchase_id": p.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
