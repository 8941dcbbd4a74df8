package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qripge/qrip-backend/internal/domain/subscription"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/logger"
	"github.com/qripge/qrip-backend/internal/types"
)

type subscriptionRepository struct {
	client *Client
	logger *logger.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(client *Client, log *logger.Logger) subscription.Repository {
	return &subscriptionRepository{
		client: client,
		logger: log,
	}
}

func (r *subscriptionRepository) coll() *mongo.Collection {
	return r.client.Collection(CollectionSubscriptions)
}

// Create creates a new subscription
func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.logger.Debugw("creating subscription", "subscription_id", sub.ID, "user_id", sub.UserID)

	if _, err := r.coll().InsertOne(ctx, sub); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.WithError(err).
				WithHint("A subscription with this id or gateway order id already exists").
				WithReportableDetails(map[string]interface{}{
					"subscription_id":  sub.ID,
					"gateway_order_id": sub.GatewayOrderID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// Get retrieves a subscription by ID
func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByGatewayOrderID retrieves a subscription by initial order id
func (r *subscriptionRepository) GetByGatewayOrderID(ctx context.Context, orderID string) (*subscription.Subscription, error) {
	return r.findOne(ctx, bson.M{"gateway_order_id": orderID})
}

// GetByUserAndPlan retrieves a user's subscription to a plan
func (r *subscriptionRepository) GetByUserAndPlan(ctx context.Context, userID, planID string) (*subscription.Subscription, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "plan_id": planID})
}

func (r *subscriptionRepository) findOne(ctx context.Context, filter bson.M) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := r.coll().FindOne(ctx, filter).Decode(&sub)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.NewError("subscription not found").
				WithHint("No subscription matches the given criteria").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

// List retrieves subscriptions matching the filter
func (r *subscriptionRepository) List(ctx context.Context, f *subscription.Filter) ([]*subscription.Subscription, error) {
	cursor, err := r.coll().Find(ctx, filterToBSON(f))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var subs []*subscription.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

// filterToBSON translates a domain filter into a Mongo query. The
// semantics must match subscription.Filter.Matches.
func filterToBSON(f *subscription.Filter) bson.M {
	query := bson.M{}
	if f == nil {
		return query
	}
	if f.UserID != "" {
		query["user_id"] = f.UserID
	}
	if len(f.PlanIDs) > 0 {
		query["plan_id"] = bson.M{"$in": f.PlanIDs}
	}
	if len(f.Statuses) > 0 {
		query["subscription_status"] = bson.M{"$in": f.Statuses}
	}
	if f.NextBillingBefore != nil {
		query["next_billing_date"] = bson.M{"$lte": *f.NextBillingBefore, "$ne": nil}
	}
	if f.RetryAttemptsBelow != nil {
		query["retry_attempt_count"] = bson.M{"$lt": *f.RetryAttemptsBelow}
	}
	if f.RetryEligibleAt != nil {
		query["$or"] = bson.A{
			bson.M{"last_retry_attempt_at": bson.M{"$lte": *f.RetryEligibleAt}},
			bson.M{"last_retry_attempt_at": bson.M{"$exists": false}},
			bson.M{"last_retry_attempt_at": nil},
		}
	}
	if f.EndDateBefore != nil {
		query["end_date"] = bson.M{"$lt": *f.EndDateBefore, "$ne": nil}
	}
	return query
}

// Update persists all mutable fields of the subscription
// Update writes every mutable field except the transaction history,
// which is append-only and owned by AppendTransaction. A full replace
// here could erase an entry pushed between read and write.
func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()

	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": sub.ID},
		bson.M{"$set": bson.M{
			"duration":              sub.Duration,
			"duration_price":        sub.DurationPrice,
			"gateway_recurring_id":  sub.GatewayRecurringID,
			"subscription_status":   sub.SubscriptionStatus,
			"start_date":            sub.StartDate,
			"end_date":              sub.EndDate,
			"next_billing_date":     sub.NextBillingDate,
			"last_payment_date":     sub.LastPaymentDate,
			"retry_attempt_count":   sub.RetryAttemptCount,
			"last_retry_attempt_at": sub.LastRetryAttemptAt,
			"status":                sub.Status,
			"updated_at":            sub.UpdatedAt,
			"updated_by":            sub.UpdatedBy,
		}},
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			WithReportableDetails(map[string]interface{}{"subscription_id": sub.ID}).
			Mark(ierr.ErrDatabase)
	}
	if res.MatchedCount == 0 {
		return ierr.NewError("subscription not found").
			WithReportableDetails(map[string]interface{}{"subscription_id": sub.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// AppendTransaction appends one entry to the transaction history.
// $push never rewrites existing entries, preserving append-only
// semantics at the storage level.
func (r *subscriptionRepository) AppendTransaction(ctx context.Context, id string, txn subscription.Transaction) error {
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"transaction_history": txn},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to append transaction").
			WithReportableDetails(map[string]interface{}{"subscription_id": id}).
			Mark(ierr.ErrDatabase)
	}
	if res.MatchedCount == 0 {
		return ierr.NewError("subscription not found").
			WithReportableDetails(map[string]interface{}{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// ClaimForProcessing is the conditional-update lock: it succeeds only
// while the record's status is still one of from. A nil, nil return
// means another process already claimed the record. The returned
// snapshot is the pre-claim document, so callers can see which state
// the record was claimed from.
func (r *subscriptionRepository) ClaimForProcessing(ctx context.Context, id string, from []types.SubscriptionStatus) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := r.coll().FindOneAndUpdate(ctx,
		bson.M{
			"_id":                 id,
			"subscription_status": bson.M{"$in": from},
		},
		bson.M{"$set": bson.M{
			"subscription_status": types.SubscriptionStatusProcessingPayment,
			"updated_at":          time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&sub)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to claim subscription for processing").
			WithReportableDetails(map[string]interface{}{"subscription_id": id}).
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

// ReleaseProcessing moves a claimed subscription out of the transient
// lock state. Conditional on processing_payment so a stale release can
// never clobber a state written by someone else.
func (r *subscriptionRepository) ReleaseProcessing(ctx context.Context, id string, to types.SubscriptionStatus) error {
	_, err := r.coll().UpdateOne(ctx,
		bson.M{
			"_id":                 id,
			"subscription_status": types.SubscriptionStatusProcessingPayment,
		},
		bson.M{"$set": bson.M{
			"subscription_status": to,
			"updated_at":          time.Now().UTC(),
		}},
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to release subscription processing lock").
			WithReportableDetails(map[string]interface{}{"subscription_id": id}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}
