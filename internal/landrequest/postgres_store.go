package landrequest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const requestColumns = `id, user_id, user_wallet_address, khatian, state, city, ward,
	area_in_units, status, rejection_reason, tx_hash, land_id, created_at, updated_at`

// PostgresStore is the database-backed Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, req *LandRequest) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO land_requests (id, user_id, user_wallet_address, khatian, state, city, ward, area_in_units, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		req.ID, req.UserID, req.UserWalletAddress, req.Khatian, req.State,
		req.City, req.Ward, req.AreaInUnits, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create land request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*LandRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM land_requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*LandRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM land_requests WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list land requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*LandRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM land_requests WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending land requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *PostgresStore) Approve(ctx context.Context, id, txHash string, landID *int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE land_requests
		SET status = 'approved', tx_hash = $2, land_id = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, txHash, landID)
	if err != nil {
		return fmt.Errorf("approve land request: %w", err)
	}
	return s.checkTransition(ctx, id, res)
}

func (s *PostgresStore) Reject(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE land_requests
		SET status = 'rejected', rejection_reason = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, reason)
	if err != nil {
		return fmt.Errorf("reject land request: %w", err)
	}
	return s.checkTransition(ctx, id, res)
}

// checkTransition distinguishes a missing row from a lost race on the
// pending guard after a zero-row conditional update.
func (s *PostgresStore) checkTransition(ctx context.Context, id string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM land_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrRequestNotFound
	}
	return ErrRequestNotPending
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*LandRequest, error) {
	var req LandRequest
	var reason, txHash sql.NullString
	var landID sql.NullInt64
	err := row.Scan(
		&req.ID, &req.UserID, &req.UserWalletAddress, &req.Khatian, &req.State,
		&req.City, &req.Ward, &req.AreaInUnits, &req.Status,
		&reason, &txHash, &landID, &req.CreatedAt, &req.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan land request: %w", err)
	}
	if reason.Valid {
		req.RejectionReason = &reason.String
	}
	if txHash.Valid {
		req.TxHash = &txHash.String
	}
	if landID.Valid {
		req.LandID = &landID.Int64
	}
	return &req, nil
}

func collectRequests(rows *sql.Rows) ([]*LandRequest, error) {
	out := []*LandRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
