package service

import (
	"context"
	"testing"
	"time"

	"github.com/parleychat/parley/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthFixture(ttl time.Duration) (*AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewAuthService(repo, testSecret, ttl), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(time.Hour)

	reg, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "hunter22pass",
	})
	require.NoError(t, err)
	require.NotNil(t, reg.User)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEqual(t, "hunter22pass", reg.User.PasswordHash, "password is never stored in the clear")

	login, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "hunter22pass",
	})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "hunter22pass",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newAuthFixture(time.Hour)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "hunter22pass",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Username: "alice2",
		Password: "hunter22pass",
	})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(context.Background(), RegisterInput{
		Email:    "alice2@example.com",
		Username: "alice",
		Password: "hunter22pass",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestResolveToken(t *testing.T) {
	svc, repo := newAuthFixture(time.Hour)

	reg, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "hunter22pass",
	})
	require.NoError(t, err)

	user, err := svc.ResolveToken(context.Background(), reg.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.ResolveToken(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrNoToken)

	_, err = svc.ResolveToken(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, domain.ErrInvalidToken)

	// A token signed with a different secret never validates.
	other := NewAuthService(repo, "other-secret", time.Hour)
	foreign, err := other.generateToken(reg.User.ID)
	require.NoError(t, err)
	_, err = svc.ResolveToken(context.Background(), foreign)
	require.ErrorIs(t, err, domain.ErrInvalidToken)

	// A valid token for a deleted account fails as unknown user.
	repo.delete(reg.User.ID)
	_, err = svc.ResolveToken(context.Background(), reg.AccessToken)
	require.ErrorIs(t, err, domain.ErrUnknownUser)
}

func TestResolveTokenExpired(t *testing.T) {
	svc, _ := newAuthFixture(-time.Minute)

	reg, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "hunter22pass",
	})
	require.NoError(t, err)

	_, err = svc.ResolveToken(context.Background(), reg.AccessToken)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("hunter22pass")
	require.NoError(t, err)

	assert.True(t, verifyPassword("hunter22pass", hash))
	assert.False(t, verifyPassword("hunter23pass", hash))
	assert.False(t, verifyPassword("hunter22pass", "malformed"))
	assert.False(t, verifyPassword("hunter22pass", "not!base64:either!"))

	// Fresh salt per hash.
	hash2, err := hashPassword("hunter22pass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}
