package marketplace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const listingColumns = `id, user_id, land_id, price_wei, status, rejection_reason, created_at, updated_at`

// PostgresStore is the database-backed Store. The one-live-listing-
// per-land rule is enforced by a partial unique index on land_id, so
// concurrent creates settle in the database and exactly one wins.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, listing *SaleListing) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sale_listings (id, user_id, land_id, price_wei, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		listing.ID, listing.UserID, listing.LandID, listing.PriceWei, listing.Status,
	).Scan(&listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrListingExists
		}
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*SaleListing, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM sale_listings WHERE id = $1`, id)
	return scanListing(row)
}

func (s *PostgresStore) ListApproved(ctx context.Context) ([]*SaleListing, error) {
	return s.list(ctx,
		`SELECT `+listingColumns+` FROM sale_listings WHERE status = 'approved' ORDER BY created_at DESC`)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*SaleListing, error) {
	return s.list(ctx,
		`SELECT `+listingColumns+` FROM sale_listings WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*SaleListing, error) {
	return s.list(ctx,
		`SELECT `+listingColumns+` FROM sale_listings WHERE status = 'pending' ORDER BY created_at DESC`)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id, status string, reason *string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sale_listings
		SET status = $2, rejection_reason = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, status, reason)
	if err != nil {
		return fmt.Errorf("update listing status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sale_listings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrListingNotFound
	}
	return ErrListingNotPending
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*SaleListing, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	out := []*SaleListing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*SaleListing, error) {
	var l SaleListing
	var reason sql.NullString
	err := row.Scan(&l.ID, &l.UserID, &l.LandID, &l.PriceWei, &l.Status, &reason, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	if reason.Valid {
		l.RejectionReason = &reason.String
	}
	return &l, nil
}
