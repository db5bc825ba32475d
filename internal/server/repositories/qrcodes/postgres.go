package qrcodes

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

const codeConstraint = "qr_codes_code_key"

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, code string) (*models.QRCode, error) {
	query := `
		INSERT INTO qr_codes (code)
		VALUES ($1)
		RETURNING id, created_at
	`
	q := &models.QRCode{Code: code, State: models.Unregistered}
	if err := r.db.QueryRowContext(ctx, query, code).Scan(&q.ID, &q.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err, codeConstraint) {
			return nil, common.ErrDuplicateCode
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return q, nil
}

func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*models.QRCode, error) {
	query := `
		SELECT id, code, is_registered, owner_name, owner_email, created_at, registered_at
		FROM qr_codes
		WHERE code = $1
	`
	q, err := scanQRCode(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return q, nil
}

// Register is the authoritative guard against double registration: the
// WHERE clause only matches while is_registered is still false.
func (r *PostgresRepository) Register(ctx context.Context, code, ownerName, ownerEmail string, at time.Time) error {
	query := `
		UPDATE qr_codes
		SET owner_name = $2, owner_email = $3, is_registered = TRUE, registered_at = $4
		WHERE code = $1 AND is_registered = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, code, ownerName, ownerEmail, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrAlreadyRegistered
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.QRCode, error) {
	query := `
		SELECT id, code, is_registered, owner_name, owner_email, created_at, registered_at
		FROM qr_codes
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.QRCode
	for rows.Next() {
		q, err := scanQRCode(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQRCode(s scanner) (*models.QRCode, error) {
	var (
		q            models.QRCode
		isRegistered bool
	)
	if err := s.Scan(&q.ID, &q.Code, &isRegistered, &q.OwnerName, &q.OwnerEmail, &q.CreatedAt, &q.RegisteredAt); err != nil {
		return nil, err
	}
	q.State = models.StateFromFlag(isRegistered)
	return &q, nil
}
