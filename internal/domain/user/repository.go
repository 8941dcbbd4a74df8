package user

import "context"

// Repository defines the interface for user lookups
type Repository interface {
	// Get retrieves a user by ID
	Get(ctx context.Context, id string) (*User, error)
}
