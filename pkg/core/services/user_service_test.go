package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
)

func TestUserService_EnsureUser(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	s := NewUserService(repo, 0)
	ctx := context.Background()

	u, err := s.EnsureUser(ctx, " Alice@Example.com ", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, domain.DefaultQRCodeLimit, u.QRCodeLimit)

	again, err := s.EnsureUser(ctx, "alice@example.com", "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Alice", again.Name)
	assert.Len(t, repo.users, 1)

	_, err = s.EnsureUser(ctx, "  ", "Nobody")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_EnsureUserDefaultLimit(t *testing.T) {
	t.Parallel()

	s := NewUserService(newFakeRepo(), 7)
	u, err := s.EnsureUser(context.Background(), "bob@example.com", "Bob")
	require.NoError(t, err)
	assert.Equal(t, 7, u.QRCodeLimit)
}

func TestUserService_CreateAdmin(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	s := NewUserService(repo, 0)
	ctx := context.Background()

	existing, err := s.EnsureUser(ctx, "carol@example.com", "Carol")
	require.NoError(t, err)

	promoted, err := s.CreateAdmin(ctx, "", "CAROL@example.com", 50)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, promoted.ID)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)
	assert.Equal(t, 50, promoted.QRCodeLimit)
	assert.Equal(t, "Carol", promoted.Name)

	created, err := s.CreateAdmin(ctx, "Dave", "dave@example.com", 10)
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, created.ID)
	assert.Equal(t, domain.RoleAdmin, created.Role)

	_, err = s.CreateAdmin(ctx, "Eve", "eve@example.com", 0)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_GetUser(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.seedUser("u1", 3)
	s := NewUserService(repo, 0)

	u, err := s.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, u.QRCodeLimit)

	_, err = s.GetUser(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
