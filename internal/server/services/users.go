package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/booktag/internal/common"
	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/logging"
	"github.com/dmitrijs2005/booktag/internal/server/models"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/repomanager"
)

// UserService creates user accounts that verification codes are issued to.
type UserService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewUserService(tx dbx.Transactor, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{
		tx:          tx,
		repomanager: m,
		logger:      logger.With("module", "users"),
	}
}

// Register creates an unverified user. A taken email yields ErrDuplicateEmail.
func (s *UserService) Register(ctx context.Context, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, common.ErrInvalidOwner
	}

	var u *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		u, err = s.repomanager.Users(tx).Create(ctx, &models.User{Name: name, Email: email})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user created", "user_id", u.ID)
	return u, nil
}
