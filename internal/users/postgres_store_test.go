package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekhpal/landchain/internal/testutil"
)

func pgUser() *User {
	return &User{
		ID:           "usr_pg1",
		Name:         "Asha",
		ContactNo:    "+91-9876543210",
		Email:        "asha@example.com",
		PinCode:      "700001",
		PasswordHash: "hash",
		Role:         RoleUser,
		BuyerStatus:  ApprovalNotRequested,
		SellerStatus: ApprovalNotRequested,
	}
}

func TestPostgresStoreCreateAndGet(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	u := pgUser()
	require.NoError(t, store.Create(ctx, u))

	got, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
	assert.Empty(t, got.WalletAddress)

	byEmail, err := store.GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = store.GetByID(ctx, "usr_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresStoreExistsByEmailOrContact(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pgUser()))

	exists, err := store.ExistsByEmailOrContact(ctx, "asha@example.com", "+91-0000000000")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsByEmailOrContact(ctx, "other@example.com", "+91-9876543210")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsByEmailOrContact(ctx, "other@example.com", "+91-0000000000")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPostgresStoreUpdate(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	u := pgUser()
	require.NoError(t, store.Create(ctx, u))

	u.WalletAddress = "0x2222222222222222222222222222222222222222"
	u.SellerStatus = ApprovalApproved
	require.NoError(t, store.Update(ctx, u))

	got, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", got.WalletAddress)
	assert.Equal(t, ApprovalApproved, got.SellerStatus)

	missing := pgUser()
	missing.ID = "usr_missing"
	assert.ErrorIs(t, store.Update(ctx, missing), ErrUserNotFound)
}
