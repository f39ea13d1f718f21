package service

import (
	"context"
	"testing"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSettingsDefaults(t *testing.T) {
	env := newTestEnv(t)

	settings, err := env.settings.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 48, settings.PaymentTimeoutHours)
	assert.False(t, settings.AllowDuplicateBookings)
	assert.True(t, settings.DefaultApprovalRequired)
}

func TestUpdateSettingsPartial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com")

	hours := 24
	updated, err := env.settings.UpdateSettings(ctx, &admin.ID, UpdateSettingsRequest{
		PaymentTimeoutHours: &hours,
	})
	require.NoError(t, err)
	assert.Equal(t, 24, updated.PaymentTimeoutHours)

	// untouched fields keep their values
	assert.False(t, updated.AllowDuplicateBookings)
	assert.True(t, updated.DefaultApprovalRequired)

	allow := true
	updated, err = env.settings.UpdateSettings(ctx, &admin.ID, UpdateSettingsRequest{
		AllowDuplicateBookings: &allow,
	})
	require.NoError(t, err)
	assert.Equal(t, 24, updated.PaymentTimeoutHours)
	assert.True(t, updated.AllowDuplicateBookings)

	logs, _, err := env.auditRepo.List(ctx, repository.AuditFilter{Action: model.ActionUpdateSettings}, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, model.ActionUpdateSettings, logs[0].Action)
}

func TestUpdateSettingsRejectsEmptyRequest(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com")

	_, err := env.settings.UpdateSettings(context.Background(), &admin.ID, UpdateSettingsRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no settings fields")
}
