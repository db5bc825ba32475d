package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/booktag/internal/common"
	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRCodeRepository_CreateIsUnique(t *testing.T) {
	repo := NewQRCodeRepository(NewStore())
	ctx := context.Background()

	q, err := repo.Create(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "1", q.ID)
	assert.Equal(t, models.Unregistered, q.State)

	_, err = repo.Create(ctx, "ABC123")
	require.ErrorIs(t, err, common.ErrDuplicateCode)
}

func TestQRCodeRepository_ConcurrentCreate_OneWinner(t *testing.T) {
	repo := NewQRCodeRepository(NewStore())

	var wins, dups atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(context.Background(), "SAME")
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, common.ErrDuplicateCode):
				dups.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, 31, dups.Load())
}

func TestQRCodeRepository_RegisterOnce(t *testing.T) {
	repo := NewQRCodeRepository(NewStore())
	ctx := context.Background()
	_, err := repo.Create(ctx, "ABC123")
	require.NoError(t, err)

	at := time.Now().UTC()
	require.NoError(t, repo.Register(ctx, "ABC123", "Alice", "a@x.com", at))
	require.ErrorIs(t, repo.Register(ctx, "ABC123", "Bob", "b@x.com", at), common.ErrAlreadyRegistered)

	q, err := repo.GetByCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, q.IsRegistered())
	assert.Equal(t, "Alice", *q.OwnerName)
	assert.Equal(t, "a@x.com", *q.OwnerEmail)
}

func TestQRCodeRepository_ReturnsCopies(t *testing.T) {
	repo := NewQRCodeRepository(NewStore())
	ctx := context.Background()
	_, err := repo.Create(ctx, "ABC123")
	require.NoError(t, err)
	require.NoError(t, repo.Register(ctx, "ABC123", "Alice", "a@x.com", time.Now()))

	q, err := repo.GetByCode(ctx, "ABC123")
	require.NoError(t, err)
	*q.OwnerName = "Mallory"

	again, err := repo.GetByCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", *again.OwnerName)
}

func TestQRCodeRepository_List(t *testing.T) {
	repo := NewQRCodeRepository(NewStore())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, fmt.Sprintf("C%d", i))
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "C1", page[0].Code)
	assert.Equal(t, "C2", page[1].Code)

	tail, err := repo.List(ctx, 10, 4)
	require.NoError(t, err)
	require.Len(t, tail, 1)

	empty, err := repo.List(ctx, 10, 9)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestQRCodeRepository_GetByCodeNotFound(t *testing.T) {
	repo := NewQRCodeRepository(NewStore())
	_, err := repo.GetByCode(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUserRepository_Lifecycle(t *testing.T) {
	repo := NewUserRepository(NewStore())
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{Name: "Alice", Email: "a@x.com"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	_, err = repo.Create(ctx, &models.User{Name: "Alias", Email: "a@x.com"})
	require.ErrorIs(t, err, common.ErrDuplicateEmail)

	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetVerificationCode(ctx, u.ID, "000042", now.Add(time.Hour)))

	require.ErrorIs(t, repo.ConsumeVerificationCode(ctx, u.ID, "000043", now), common.ErrNoCodeOutstanding)
	require.ErrorIs(t, repo.ConsumeVerificationCode(ctx, u.ID, "000042", now.Add(time.Hour)), common.ErrNoCodeOutstanding)
	require.NoError(t, repo.ConsumeVerificationCode(ctx, u.ID, "000042", now))
	require.ErrorIs(t, repo.ConsumeVerificationCode(ctx, u.ID, "000042", now), common.ErrNoCodeOutstanding)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.False(t, got.HasOutstandingCode())
}

func TestUserRepository_UnknownUser(t *testing.T) {
	repo := NewUserRepository(NewStore())
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, repo.SetVerificationCode(ctx, "ghost", "000000", time.Now()), common.ErrorNotFound)
}

func TestTransactor_RunsFn(t *testing.T) {
	called := false
	err := Transactor{}.WithTx(context.Background(), func(ctx context.Context, tx dbx.DBTX) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
