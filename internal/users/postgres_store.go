package users

import (
	"context"
	"database/sql"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed user store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, name, contact_no, email, pin_code, password_hash, role,
		COALESCE(wallet_address, ''), buyer_status, seller_status, created_at, updated_at`

func (p *PostgresStore) Create(ctx context.Context, u *User) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (
			id, name, contact_no, email, pin_code, password_hash, role,
			wallet_address, buyer_status, seller_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Name, u.ContactNo, u.Email, u.PinCode, u.PasswordHash, string(u.Role),
		nullString(u.WalletAddress), string(u.BuyerStatus), string(u.SellerStatus),
		u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*User, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (p *PostgresStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (p *PostgresStore) ExistsByEmailOrContact(ctx context.Context, email, contactNo string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR contact_no = $2)`,
		email, contactNo,
	).Scan(&exists)
	return exists, err
}

func (p *PostgresStore) Update(ctx context.Context, u *User) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE users SET
			name = $1, contact_no = $2, email = $3, role = $4,
			wallet_address = $5, buyer_status = $6, seller_status = $7, updated_at = $8
		WHERE id = $9`,
		u.Name, u.ContactNo, u.Email, string(u.Role),
		nullString(u.WalletAddress), string(u.BuyerStatus), string(u.SellerStatus),
		u.UpdatedAt, u.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var role, buyer, seller string
	err := row.Scan(
		&u.ID, &u.Name, &u.ContactNo, &u.Email, &u.PinCode, &u.PasswordHash, &role,
		&u.WalletAddress, &buyer, &seller, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = Role(role)
	u.BuyerStatus = ApprovalStatus(buyer)
	u.SellerStatus = ApprovalStatus(seller)
	return &u, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
