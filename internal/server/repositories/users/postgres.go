package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/booktag/internal/common"
	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/server/models"
)

const emailConstraint = "users_email_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (name, email)
         VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err, emailConstraint) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, name, email, is_verified, verification_code, verification_code_expires, created_at
		 FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email,
		&user.IsVerified, &user.VerificationCode, &user.VerificationCodeExpires, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) SetVerificationCode(ctx context.Context, id, code string, expires time.Time) error {
	query :=
		`UPDATE users SET verification_code = $2, verification_code_expires = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, code, expires)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res, common.ErrorNotFound)
}

func (r *PostgresRepository) ConsumeVerificationCode(ctx context.Context, id, code string, now time.Time) error {
	query :=
		`UPDATE users SET is_verified = TRUE, verification_code = NULL, verification_code_expires = NULL
		 WHERE id = $1 AND verification_code = $2 AND verification_code_expires > $3
		 `

	res, err := r.db.ExecContext(ctx, query, id, code, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res, common.ErrNoCodeOutstanding)
}

func expectOneRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return none
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
