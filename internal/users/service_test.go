package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/internal/models"
)

func newService() *Service {
	return NewService(NewMemoryUserRepository(), func(email string) bool { return email == "boss@example.com" })
}

func TestRegister(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Ada@Example.com ", "Ada", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.False(t, u.CreatedAt.IsZero())

	admin, err := svc.Register(ctx, "boss@example.com", "Boss", "pw")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
}

func TestRegister_Rejects(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	_, err := svc.Register(ctx, "a@example.com", "A", "pw")
	require.NoError(t, err)

	cases := map[string][3]string{
		"missing email":    {"", "B", "pw"},
		"missing name":     {"b@example.com", " ", "pw"},
		"missing password": {"b@example.com", "B", ""},
		"duplicate email":  {"A@example.com", "Other", "pw"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, in[0], in[1], in[2])
			require.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Equal(t, 400, apperrors.Status(err))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	reg, err := svc.Register(ctx, "ada@example.com", "Ada", "s3cret")
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "ADA@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, u.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cret")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGet_NotFound(t *testing.T) {
	_, err := newService().Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 404, apperrors.Status(err))
}
