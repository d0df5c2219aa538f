package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lekhpal/landchain/internal/idgen"
	"github.com/lekhpal/landchain/internal/validation"
)

// ContactPrefix is prepended to raw contact numbers, matching the
// frontend's expectations.
const ContactPrefix = "+91-"

// SignupRequest carries new-account fields.
type SignupRequest struct {
	Name      string `json:"name"`
	ContactNo string `json:"contactNo"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	PinCode   string `json:"pinCode"`
	Role      string `json:"role"`
}

// UpdateRequest carries profile update fields.
type UpdateRequest struct {
	Name          string `json:"name"`
	ContactNo     string `json:"contactNo"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	WalletAddress string `json:"walletAddress"`
}

// ErrBadWalletAddress means the submitted wallet address is malformed.
var ErrBadWalletAddress = errors.New("users: invalid wallet address")

// Service implements account signup, login and profile management.
type Service struct {
	store Store
}

// NewService creates a user service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Signup creates an account with a bcrypt-hashed password.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	contact := ContactPrefix + req.ContactNo

	exists, err := s.store.ExistsByEmailOrContact(ctx, req.Email, contact)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := Role(req.Role)
	switch role {
	case RoleAdmin, RoleGovt:
	default:
		role = RoleUser
	}

	now := time.Now().UTC()
	u := &User{
		ID:           idgen.WithPrefix("usr_"),
		Name:         req.Name,
		ContactNo:    contact,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PinCode:      req.PinCode,
		PasswordHash: string(hash),
		Role:         role,
		BuyerStatus:  ApprovalNotRequested,
		SellerStatus: ApprovalNotRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadPassword
	}
	return u, nil
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// Update modifies profile fields on an existing account.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if req.ContactNo != "" {
		u.ContactNo = ContactPrefix + req.ContactNo
	}
	if req.Email != "" {
		u.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if req.Role != "" {
		switch Role(req.Role) {
		case RoleUser, RoleAdmin, RoleGovt:
			u.Role = Role(req.Role)
		}
	}
	if req.WalletAddress != "" {
		if !validation.IsValidEthAddress(req.WalletAddress) {
			return nil, ErrBadWalletAddress
		}
		u.WalletAddress = req.WalletAddress
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
