// Package qrcodes declares the storage contract for QR code records and its
// PostgreSQL implementation.
package qrcodes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/booktag/internal/server/models"
)

// Repository persists QR codes.
type Repository interface {
	// Create inserts an unregistered code. It must be a single atomic insert
	// guarded by the unique constraint; a clash returns common.ErrDuplicateCode.
	Create(ctx context.Context, code string) (*models.QRCode, error)

	// GetByCode returns common.ErrorNotFound when the code does not exist.
	GetByCode(ctx context.Context, code string) (*models.QRCode, error)

	// Register binds the owner only if the code is still unregistered at
	// write time. Losing that compare-and-swap returns common.ErrAlreadyRegistered.
	Register(ctx context.Context, code, ownerName, ownerEmail string, at time.Time) error

	// List returns codes ordered by id.
	List(ctx context.Context, limit, offset int) ([]*models.QRCode, error)
}
