package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zorkdi/internal/domain/entity"
	"zorkdi/pkg/errors"
)

func TestEnsureProfile(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewUserUseCase(repo)
	ctx := context.Background()

	user, err := uc.EnsureProfile(ctx, "dana", "dana@example.com", "Dana")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleClient, user.Role)

	user, err = uc.EnsureProfile(ctx, "dana", "dana@new.example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "dana@new.example.com", user.Email)
	assert.Equal(t, "Dana", user.DisplayName)

	_, err = uc.EnsureProfile(ctx, "", "x@example.com", "")
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
}

func TestDeviceToken(t *testing.T) {
	repo := newFakeUserRepo(bobUser)
	uc := NewUserUseCase(repo)
	ctx := context.Background()

	assert.True(t, errors.Is(uc.RegisterDeviceToken(ctx, "bob", "  "), "BAD_REQUEST"))

	require.NoError(t, uc.RegisterDeviceToken(ctx, "bob", "tok-bob"))
	user, _ := uc.GetProfile(ctx, "bob")
	assert.True(t, user.HasDeviceToken())

	require.NoError(t, uc.ClearDeviceToken(ctx, "bob"))
	user, _ = uc.GetProfile(ctx, "bob")
	assert.False(t, user.HasDeviceToken())
}

func TestListClients(t *testing.T) {
	repo := newFakeUserRepo(aliceUser, bobUser, &entity.User{ID: "staff-1", Role: entity.RoleStaff})
	uc := NewUserUseCase(repo)

	users, err := uc.ListClients(context.Background(), staff)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = uc.ListClients(context.Background(), alice)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}
