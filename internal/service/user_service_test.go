package service

import (
	"context"
	"testing"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.users.Register(ctx, RegisterRequest{
		Email:    "alice@example.com",
		FullName: "Alice",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, model.RoleUser, registered.User.Role)

	logged, err := env.users.Login(ctx, LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, logged.Token)
	assert.Equal(t, registered.User.ID, logged.User.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice@example.com")

	_, err := env.users.Login(ctx, LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLoginBlockedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	admin := env.seedUser(t, "admin@example.com")

	blocked := true
	_, err := env.users.UpdateUser(ctx, &admin.ID, user.ID.String(), UpdateUserRequest{IsBlocked: &blocked})
	require.NoError(t, err)

	_, err = env.users.Login(ctx, LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice@example.com")

	_, err := env.users.Register(ctx, RegisterRequest{
		Email:    "alice@example.com",
		FullName: "Alice Again",
		Password: "password123",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already exists")
}

func TestCreateUserValidatesRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com")

	_, err := env.users.CreateUser(ctx, &admin.ID, CreateUserRequest{
		Email:    "bob@example.com",
		FullName: "Bob",
		Password: "password123",
		Role:     "superuser",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")

	created, err := env.users.CreateUser(ctx, &admin.ID, CreateUserRequest{
		Email:    "bob@example.com",
		FullName: "Bob",
		Password: "password123",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, created.Role)

	logs, _, err := env.auditRepo.List(ctx, repository.AuditFilter{Action: model.ActionCreateUser}, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, model.ActionCreateUser, logs[0].Action)
}

func TestUpdateUserFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	admin := env.seedUser(t, "admin@example.com")

	updated, err := env.users.UpdateUser(ctx, &admin.ID, user.ID.String(), UpdateUserRequest{
		FullName: "Alice Cooper",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.FullName)
	assert.Equal(t, model.RoleAdmin, updated.Role)
	assert.False(t, updated.IsBlocked)

	_, err = env.users.UpdateUser(ctx, &admin.ID, user.ID.String(), UpdateUserRequest{Role: "owner"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")

	// the successful update left an audit row committed alongside it
	logs, _, err := env.auditRepo.List(ctx, repository.AuditFilter{Action: model.ActionUpdateUser}, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, user.ID.String(), logs[0].EntityID)
}

func TestGetProfileAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, "alice@example.com")
	env.seedUser(t, "bob@example.com")

	profile, err := env.users.GetProfile(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)

	users, total, err := env.users.ListUsers(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, users, 2)
}
