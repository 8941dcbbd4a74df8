package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/qripge/qrip-backend/internal/domain/user"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/logger"
)

type userRepository struct {
	client *Client
	logger *logger.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(client *Client, log *logger.Logger) user.Repository {
	return &userRepository{
		client: client,
		logger: log,
	}
}

// Get retrieves a user by ID
func (r *userRepository) Get(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := r.client.Collection(CollectionUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.NewError("user not found").
				WithHint("No user exists with the given id").
				WithReportableDetails(map[string]interface{}{"user_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch user").
			Mark(ierr.ErrDatabase)
	}
	return &u, nil
}
