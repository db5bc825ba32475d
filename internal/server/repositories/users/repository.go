// Package users declares the storage contract for user accounts and their
// outstanding verification codes, with a PostgreSQL implementation.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/booktag/internal/server/models"
)

type Repository interface {
	// Create inserts a user; a taken email returns common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByID returns common.ErrorNotFound when the user does not exist.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// SetVerificationCode stores code and expiry, replacing any outstanding
	// pair. An unknown id returns common.ErrorNotFound.
	SetVerificationCode(ctx context.Context, id, code string, expires time.Time) error

	// ConsumeVerificationCode marks the user verified and clears the code,
	// but only while code is still the stored one and has not expired at now.
	// Losing that race returns common.ErrNoCodeOutstanding.
	ConsumeVerificationCode(ctx context.Context, id, code string, now time.Time) error
}
