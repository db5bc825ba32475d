// Package services contains server-side business logic. This file implements
// QRCodeRegistry, which owns the lifecycle of printed QR code records:
// creation, lookup and the one-shot binding of an owner.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/booktag/internal/common"
	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/logging"
	"github.com/dmitrijs2005/booktag/internal/server/metrics"
	"github.com/dmitrijs2005/booktag/internal/server/models"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/booktag/internal/timex"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500

	maxBatchSize          = 1000
	batchTokenLength      = 10
	batchCollisionRetries = 3
)

// QRCodeRegistry provides QR code operations:
// - CreateCode / ProvisionBatch: insert unregistered codes
// - LookupCode / ListCodes: reads
// - RegisterOwner: bind an owner exactly once
type QRCodeRegistry struct {
	db          dbx.DBTX
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
	logger      logging.Logger
}

// NewQRCodeRegistry constructs a QRCodeRegistry. db serves plain reads, tx
// scopes every write.
func NewQRCodeRegistry(db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, logger logging.Logger) *QRCodeRegistry {
	return &QRCodeRegistry{
		db:          db,
		tx:          tx,
		repomanager: m,
		clock:       timex.SystemClock,
		logger:      logger.With("module", "qrcodes"),
	}
}

// CreateCode inserts a new unregistered code. Surrounding spaces are trimmed.
// An empty or over-long code yields ErrInvalidCode, an existing one
// ErrDuplicateCode.
func (s *QRCodeRegistry) CreateCode(ctx context.Context, code string) (*models.QRCode, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > common.MaxCodeLength {
		return nil, common.ErrInvalidCode
	}

	var created *models.QRCode
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		created, err = s.repomanager.QRCodes(tx).Create(ctx, code)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating qr code: %w", err)
	}

	s.logger.Info(ctx, "qr code created", "code", created.Code, "id", created.ID)
	return created, nil
}

// LookupCode returns the record for code or ErrorNotFound. Surrounding
// spaces are trimmed as in CreateCode.
func (s *QRCodeRegistry) LookupCode(ctx context.Context, code string) (*models.QRCode, error) {
	code = strings.TrimSpace(code)
	q, err := s.repomanager.QRCodes(s.db).GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("error looking up qr code: %w", err)
	}
	return q, nil
}

// RegisterOwner binds ownerName and ownerEmail to code. Of any number of
// concurrent calls for the same code exactly one succeeds; the others get
// ErrAlreadyRegistered.
func (s *QRCodeRegistry) RegisterOwner(ctx context.Context, code, ownerName, ownerEmail string) error {
	code = strings.TrimSpace(code)
	ownerName = strings.TrimSpace(ownerName)
	ownerEmail = strings.TrimSpace(ownerEmail)
	if ownerName == "" || ownerEmail == "" ||
		len(ownerName) > common.MaxOwnerFieldLength || len(ownerEmail) > common.MaxOwnerFieldLength {
		return common.ErrInvalidOwner
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.QRCodes(tx)

		// fast path only; the conditional update below decides
		q, err := repo.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if !q.State.CanTransitionTo(models.Registered) {
			return common.ErrAlreadyRegistered
		}

		return repo.Register(ctx, code, ownerName, ownerEmail, s.clock())
	})

	metrics.ObserveRegistration(err)

	if err != nil {
		if errors.Is(err, common.ErrAlreadyRegistered) {
			s.logger.Info(ctx, "qr code registration rejected", "code", code)
		}
		return fmt.Errorf("error registering qr code: %w", err)
	}

	s.logger.Info(ctx, "qr code registered", "code", code)
	return nil
}

// ListCodes returns codes ordered by id. limit is clamped to [1, 500] and
// defaults to 50 when not positive.
func (s *QRCodeRegistry) ListCodes(ctx context.Context, limit, offset int) ([]*models.QRCode, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	list, err := s.repomanager.QRCodes(s.db).List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing qr codes: %w", err)
	}
	return list, nil
}

// ProvisionBatch creates count codes of the form prefix + 10 random base32
// characters. A generated code that already exists is regenerated a few
// times before giving up.
func (s *QRCodeRegistry) ProvisionBatch(ctx context.Context, prefix string, count int) ([]*models.QRCode, error) {
	prefix = strings.TrimSpace(prefix)
	if count < 1 || count > maxBatchSize || len(prefix)+batchTokenLength > common.MaxCodeLength {
		return nil, common.ErrInvalidBatch
	}

	result := make([]*models.QRCode, 0, count)
	for range count {
		q, err := s.createGenerated(ctx, prefix)
		if err != nil {
			return result, err
		}
		result = append(result, q)
	}

	s.logger.Info(ctx, "qr code batch provisioned", "prefix", prefix, "count", len(result))
	return result, nil
}

func (s *QRCodeRegistry) createGenerated(ctx context.Context, prefix string) (*models.QRCode, error) {
	var err error
	for range batchCollisionRetries + 1 {
		var token string
		token, err = common.MakeRandToken(batchTokenLength)
		if err != nil {
			return nil, common.ErrorInternal
		}
		var q *models.QRCode
		q, err = s.CreateCode(ctx, prefix+token)
		if err == nil {
			return q, nil
		}
		if !errors.Is(err, common.ErrDuplicateCode) {
			return nil, err
		}
		s.logger.Warn(ctx, "generated qr code collided, retrying", "prefix", prefix)
	}
	return nil, err
}
