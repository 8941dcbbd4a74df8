package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/qripge/qrip-backend/internal/domain/memorial"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/logger"
	"github.com/qripge/qrip-backend/internal/types"
)

type memorialRepository struct {
	client *Client
	logger *logger.Logger
}

// NewMemorialRepository creates a new memorial repository
func NewMemorialRepository(client *Client, log *logger.Logger) memorial.Repository {
	return &memorialRepository{
		client: client,
		logger: log,
	}
}

func (r *memorialRepository) coll() *mongo.Collection {
	return r.client.Collection(CollectionMemorials)
}

// Create creates a new memorial
func (r *memorialRepository) Create(ctx context.Context, m *memorial.Memorial) error {
	if _, err := r.coll().InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("A memorial with this id or slug already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create memorial").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// Get retrieves a memorial by ID
func (r *memorialRepository) Get(ctx context.Context, id string) (*memorial.Memorial, error) {
	var m memorial.Memorial
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.NewError("memorial not found").
				WithReportableDetails(map[string]interface{}{"memorial_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch memorial").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

// ListActiveWithPurchase returns active memorials with a linked purchase
func (r *memorialRepository) ListActiveWithPurchase(ctx context.Context) ([]*memorial.Memorial, error) {
	cursor, err := r.coll().Find(ctx, bson.M{
		"memorial_status": types.MemorialStatusActive,
		"purchase_id":     bson.M{"$exists": true, "$ne": ""},
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list active memorials").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var memorials []*memorial.Memorial
	if err := cursor.All(ctx, &memorials); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode memorials").
			Mark(ierr.ErrDatabase)
	}
	return memorials, nil
}

// UpdateAccess sets visibility and payment status in one write
func (r *memorialRepository) UpdateAccess(ctx context.Context, id string, status types.MemorialStatus, paymentStatus types.MemorialPaymentStatus) error {
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"memorial_status": status,
			"payment_status":  paymentStatus,
			"updated_at":      time.Now().UTC(),
		}},
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update memorial access").
			WithReportableDetails(map[string]interface{}{"memorial_id": id}).
			Mark(ierr.ErrDatabase)
	}
	if res.MatchedCount == 0 {
		return ierr.NewError("memorial not found").
			WithReportableDetails(map[string]interface{}{"memorial_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// Update persists all mutable fields of the memorial
func (r *memorialRepository) Update(ctx context.Context, m *memorial.Memorial) error {
	m.UpdatedAt = time.Now().UTC()

	res, err := r.coll().ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update memorial").
			WithReportableDetails(map[string]interface{}{"memorial_id": m.ID}).
			Mark(ierr.ErrDatabase)
	}
	if res.MatchedCount == 0 {
		return ierr.NewError("memorial not found").
			WithReportableDetails(map[string]interface{}{"memorial_id": m.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
