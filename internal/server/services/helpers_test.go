package services

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/booktag/internal/logging"
	"github.com/dmitrijs2005/booktag/internal/server/config"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/memory"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/repomanager"
)

func newMemoryRegistry(t *testing.T) *QRCodeRegistry {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager(memory.NewStore())
	return NewQRCodeRegistry(nil, memory.Transactor{}, rm, logging.Nop{})
}

type verificationFixture struct {
	users *UserService
	svc   *VerificationCodeService
	now   time.Time
}

func newMemoryVerification(t *testing.T, limiter AttemptLimiter, publisher CodeIssuedPublisher) *verificationFixture {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager(memory.NewStore())
	cfg := &config.Config{VerificationCodeTTL: time.Hour}

	f := &verificationFixture{
		users: NewUserService(memory.Transactor{}, rm, logging.Nop{}),
		svc:   NewVerificationCodeService(nil, memory.Transactor{}, rm, cfg, limiter, publisher, logging.Nop{}),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc.clock = func() time.Time { return f.now }
	return f
}
