package repositories_test

import (
	"context"
	"testing"

	"github.com/rohits-web03/blogapi/internal/models"
	"github.com/rohits-web03/blogapi/internal/repositories"
	"github.com/rohits-web03/blogapi/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_CreateNormalizesAndDerivesName(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := repositories.Users(db)

	u := &models.User{Email: "  Frank.Doe@Example.COM ", PasswordHash: "x", IsActive: true}
	require.NoError(t, users.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, "frank.doe@example.com", u.Email)
	assert.Equal(t, "frank.doe", u.Name)

	got, err := users.FindActiveByEmail(ctx, "FRANK.DOE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	dup := &models.User{Email: "frank.doe@example.com", PasswordHash: "y", IsActive: true}
	require.Error(t, users.Create(ctx, dup))
}

func TestUsers_UpdateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := repositories.Users(db)

	u := &models.User{Email: "gina@example.com", PasswordHash: "old", IsActive: true}
	require.NoError(t, users.Create(ctx, u))

	require.NoError(t, users.UpdatePasswordHash(ctx, u.ID, "new"))
	got, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)

	require.NoError(t, users.Delete(ctx, u.ID))
	_, err = users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	assert.ErrorIs(t, users.Delete(ctx, u.ID), repositories.ErrNotFound)
	assert.ErrorIs(t, users.UpdatePasswordHash(ctx, u.ID, "z"), repositories.ErrNotFound)
}
