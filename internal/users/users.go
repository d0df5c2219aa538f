// Package users manages application accounts and their roles.
//
// The application role ("admin") is independent of the on-chain
// contract admin: the first gates HTTP endpoints, the second gates
// contract writes. Both checks apply where relevant.
package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("users: user not found")
	ErrUserExists   = errors.New("users: user already exists")
	ErrBadPassword  = errors.New("users: invalid credentials")
)

// Role is the application-level role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleGovt  Role = "govt"
)

// ApprovalStatus tracks buyer/seller vetting.
type ApprovalStatus string

const (
	ApprovalNotRequested ApprovalStatus = "not_requested"
	ApprovalPending      ApprovalStatus = "pending"
	ApprovalApproved     ApprovalStatus = "approved"
	ApprovalRejected     ApprovalStatus = "rejected"
)

// User is an application account.
type User struct {
	ID            string         `json:"_id"`
	Name          string         `json:"name"`
	ContactNo     string         `json:"contactNo"`
	Email         string         `json:"email"`
	PinCode       string         `json:"pinCode"`
	PasswordHash  string         `json:"-"`
	Role          Role           `json:"role"`
	WalletAddress string         `json:"walletAddress,omitempty"`
	BuyerStatus   ApprovalStatus `json:"buyerStatus"`
	SellerStatus  ApprovalStatus `json:"sellerStatus"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Store persists user accounts.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// ExistsByEmailOrContact reports whether any account already uses
	// the email or the contact number.
	ExistsByEmailOrContact(ctx context.Context, email, contactNo string) (bool, error)
	Update(ctx context.Context, u *User) error
}
