package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qripge/qrip-backend/internal/domain/plan"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/logger"
	"github.com/qripge/qrip-backend/internal/types"
)

type planRepository struct {
	client *Client
	logger *logger.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(client *Client, log *logger.Logger) plan.Repository {
	return &planRepository{
		client: client,
		logger: log,
	}
}

func (r *planRepository) coll() *mongo.Collection {
	return r.client.Collection(CollectionPlans)
}

// Create creates a new plan
func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	if _, err := r.coll().InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("A plan with this id already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// Get retrieves a plan by ID
func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	var p plan.Plan
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.NewError("plan not found").
				WithReportableDetails(map[string]interface{}{"plan_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

// List retrieves plans matching the filter
func (r *planRepository) List(ctx context.Context, f *plan.Filter) ([]*plan.Plan, error) {
	query := bson.M{}
	if f != nil {
		if len(f.BillingPeriods) > 0 {
			query["billing_period"] = bson.M{"$in": f.BillingPeriods}
		}
		if f.IsActive != nil && *f.IsActive {
			query["status"] = types.StatusPublished
		}
	}

	cursor, err := r.coll().Find(ctx, query)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var plans []*plan.Plan
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}

// GetFreePlan retrieves the always-available free-tier plan
func (r *planRepository) GetFreePlan(ctx context.Context) (*plan.Plan, error) {
	var p plan.Plan
	err := r.coll().FindOne(ctx, bson.M{
		"billing_period": types.BillingPeriodFree,
		"price":          bson.M{"$in": bson.A{"0", 0, 0.0}},
	}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.NewError("free plan not configured").
				WithHint("Seed a plan with billing period free and zero price").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch free plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

// ListIDsByBillingPeriod returns plan ids with the given billing period
func (r *planRepository) ListIDsByBillingPeriod(ctx context.Context, period types.BillingPeriod) ([]string, error) {
	cursor, err := r.coll().Find(ctx,
		bson.M{"billing_period": period},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plan ids").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode plan ids").
			Mark(ierr.ErrDatabase)
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}
