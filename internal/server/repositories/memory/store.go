// Package memory provides in-process repositories with the same atomicity
// guarantees as the PostgreSQL ones: every compare-and-swap happens under a
// single mutex. It backs development runs without a DSN and the
// concurrency tests.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/booktag/internal/common"
	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/server/models"
	"github.com/google/uuid"
)

// Store is the shared state behind the memory repositories.
type Store struct {
	mu sync.Mutex

	qrSeq   int64
	qrcodes map[string]*models.QRCode
	qrOrder []string

	users  map[string]*models.User
	emails map[string]string

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		qrcodes: make(map[string]*models.QRCode),
		users:   make(map[string]*models.User),
		emails:  make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Transactor runs fn directly. Each repository call is atomic on its own and
// the services issue at most one write per transaction, so there is nothing
// to roll back.
type Transactor struct{}

func (Transactor) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

// QRCodeRepository implements qrcodes.Repository.
type QRCodeRepository struct {
	s *Store
}

func NewQRCodeRepository(s *Store) *QRCodeRepository {
	return &QRCodeRepository{s: s}
}

func (r *QRCodeRepository) Create(_ context.Context, code string) (*models.QRCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.qrcodes[code]; ok {
		return nil, common.ErrDuplicateCode
	}
	r.s.qrSeq++
	q := &models.QRCode{
		ID:        strconv.FormatInt(r.s.qrSeq, 10),
		Code:      code,
		State:     models.Unregistered,
		CreatedAt: r.s.now(),
	}
	r.s.qrcodes[code] = q
	r.s.qrOrder = append(r.s.qrOrder, code)
	return copyQRCode(q), nil
}

func (r *QRCodeRepository) GetByCode(_ context.Context, code string) (*models.QRCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	q, ok := r.s.qrcodes[code]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyQRCode(q), nil
}

func (r *QRCodeRepository) Register(_ context.Context, code, ownerName, ownerEmail string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	q, ok := r.s.qrcodes[code]
	if !ok || !q.State.CanTransitionTo(models.Registered) {
		return common.ErrAlreadyRegistered
	}
	q.State = models.Registered
	q.OwnerName = &ownerName
	q.OwnerEmail = &ownerEmail
	q.RegisteredAt = &at
	return nil
}

func (r *QRCodeRepository) List(_ context.Context, limit, offset int) ([]*models.QRCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if offset >= len(r.s.qrOrder) {
		return nil, nil
	}
	end := min(offset+limit, len(r.s.qrOrder))
	result := make([]*models.QRCode, 0, end-offset)
	for _, code := range r.s.qrOrder[offset:end] {
		result = append(result, copyQRCode(r.s.qrcodes[code]))
	}
	return result, nil
}

// UserRepository implements users.Repository.
type UserRepository struct {
	s *Store
}

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.emails[user.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = copyUser(user)
	r.s.emails[user.Email] = user.ID
	return user, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) SetVerificationCode(_ context.Context, id, code string, expires time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.VerificationCode = &code
	u.VerificationCodeExpires = &expires
	return nil
}

func (r *UserRepository) ConsumeVerificationCode(_ context.Context, id, code string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || !u.HasOutstandingCode() || *u.VerificationCode != code || !now.Before(*u.VerificationCodeExpires) {
		return common.ErrNoCodeOutstanding
	}
	u.IsVerified = true
	u.VerificationCode = nil
	u.VerificationCodeExpires = nil
	return nil
}

func copyQRCode(q *models.QRCode) *models.QRCode {
	c := *q
	if q.OwnerName != nil {
		v := *q.OwnerName
		c.OwnerName = &v
	}
	if q.OwnerEmail != nil {
		v := *q.OwnerEmail
		c.OwnerEmail = &v
	}
	if q.RegisteredAt != nil {
		v := *q.RegisteredAt
		c.RegisteredAt = &v
	}
	return &c
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.VerificationCode != nil {
		v := *u.VerificationCode
		c.VerificationCode = &v
	}
	if u.VerificationCodeExpires != nil {
		v := *u.VerificationCodeExpires
		c.VerificationCodeExpires = &v
	}
	return &c
}
