package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/dmitrijs2005/booktag/internal/common"
	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/logging"
	"github.com/dmitrijs2005/booktag/internal/server/config"
	"github.com/dmitrijs2005/booktag/internal/server/events"
	"github.com/dmitrijs2005/booktag/internal/server/metrics"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/booktag/internal/timex"
	"github.com/google/uuid"
)

// AttemptLimiter bounds code submissions per user.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// CodeIssuedPublisher hands issued codes to whatever delivers the email.
type CodeIssuedPublisher interface {
	PublishVerificationCodeIssued(ctx context.Context, evt events.VerificationCodeIssued) error
}

// VerificationCodeService issues and checks time-boxed, single-use
// verification codes for users.
type VerificationCodeService struct {
	db          dbx.DBTX
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	ttl         time.Duration
	limiter     AttemptLimiter
	publisher   CodeIssuedPublisher
	clock       timex.Clock
	logger      logging.Logger
}

// NewVerificationCodeService constructs the service. limiter and publisher
// may be nil: submissions are then unlimited and issued codes are not
// announced.
func NewVerificationCodeService(db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, cfg *config.Config,
	limiter AttemptLimiter, publisher CodeIssuedPublisher, logger logging.Logger) *VerificationCodeService {
	return &VerificationCodeService{
		db:          db,
		tx:          tx,
		repomanager: m,
		ttl:         cfg.VerificationCodeTTL,
		limiter:     limiter,
		publisher:   publisher,
		clock:       timex.SystemClock,
		logger:      logger.With("module", "verification"),
	}
}

// GenerateVerificationCode stores a fresh six digit code for userID,
// replacing any outstanding one, and returns it with its expiry.
func (s *VerificationCodeService) GenerateVerificationCode(ctx context.Context, userID string) (string, time.Time, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return "", time.Time{}, common.ErrorNotFound
	}

	code, err := common.MakeVerificationCode()
	if err != nil {
		return "", time.Time{}, common.ErrorInternal
	}
	// timestamptz keeps microseconds
	expiresAt := s.clock().Add(s.ttl).Truncate(time.Microsecond)

	var email string
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		u, err := repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		email = u.Email
		return repo.SetVerificationCode(ctx, userID, code, expiresAt)
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error issuing verification code: %w", err)
	}

	metrics.RecordVerificationCodeIssued()
	s.logger.Info(ctx, "verification code issued", "user_id", userID, "expires_at", expiresAt)

	if s.publisher != nil {
		evt := events.VerificationCodeIssued{UserID: userID, Email: email, Code: code, ExpiresAt: expiresAt}
		if err := s.publisher.PublishVerificationCodeIssued(ctx, evt); err != nil {
			metrics.RecordEventPublishFailure()
			s.logger.Warn(ctx, "verification code event not published", "user_id", userID, "error", err)
		}
	}

	return code, expiresAt, nil
}

// ValidateCode checks submittedCode against the user's outstanding code and,
// on a match before expiry, marks the user verified and consumes the code.
// Of concurrent submissions of the right code exactly one succeeds.
func (s *VerificationCodeService) ValidateCode(ctx context.Context, userID, submittedCode string) error {
	err := s.validate(ctx, userID, submittedCode)
	metrics.ObserveVerificationAttempt(err)
	return err
}

func (s *VerificationCodeService) validate(ctx context.Context, userID, submittedCode string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return common.ErrorNotFound
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, userID)
		if err != nil {
			// fail open: a limiter outage must not block verification
			s.logger.Warn(ctx, "attempt limiter unavailable", "user_id", userID, "error", err)
		} else if !ok {
			return common.ErrTooManyAttempts
		}
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !u.HasOutstandingCode() {
			return common.ErrNoCodeOutstanding
		}

		now := s.clock()
		if !now.Before(*u.VerificationCodeExpires) {
			return common.ErrCodeExpired
		}
		if subtle.ConstantTimeCompare([]byte(*u.VerificationCode), []byte(submittedCode)) != 1 {
			return common.ErrCodeMismatch
		}

		return repo.ConsumeVerificationCode(ctx, userID, submittedCode, now)
	})
	if err != nil {
		return fmt.Errorf("error validating verification code: %w", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, userID); err != nil {
			s.logger.Warn(ctx, "attempt limiter reset failed", "user_id", userID, "error", err)
		}
	}

	s.logger.Info(ctx, "user verified", "user_id", userID)
	return nil
}
