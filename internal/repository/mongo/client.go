package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qripge/qrip-backend/internal/config"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/logger"
)

// Collection names.
const (
	CollectionPlans         = "subscription_plans"
	CollectionSubscriptions = "user_subscriptions"
	CollectionMemorials     = "memorials"
	CollectionPurchases     = "memorial_purchases"
	CollectionUsers         = "users"
)

// Client wraps the Mongo database handle shared by all repositories.
type Client struct {
	db     *mongo.Database
	logger *logger.Logger
}

// NewClient connects to MongoDB and pings it within the configured
// timeout.
func NewClient(ctx context.Context, cfg config.MongoConfig, log *logger.Logger) (*Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mc, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to MongoDB").
			Mark(ierr.ErrDatabase)
	}
	if err := mc.Ping(connectCtx, nil); err != nil {
		return nil, ierr.WithError(err).
			WithHint("MongoDB is unreachable").
			Mark(ierr.ErrDatabase)
	}

	log.Infow("connected to MongoDB", "database", cfg.Database)
	return &Client{
		db:     mc.Database(cfg.Database),
		logger: log,
	}, nil
}

// Collection returns a handle to the named collection.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// Disconnect closes the underlying connection pool.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.db.Client().Disconnect(ctx)
}
