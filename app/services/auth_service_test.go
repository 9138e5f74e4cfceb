package services

import (
	"context"
	"testing"

	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginProfile(t *testing.T) {
	svc := NewAuthService(testkit.DB(t))
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Username: "alice", Email: "alice@example.com",
		Password: "s3cret-pass", PasswordConfirmation: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.False(t, u.IsStaff)
	assert.NotEqual(t, "s3cret-pass", u.Password)

	_, err = svc.Register(ctx, RegisterInput{
		Username: "alice", Email: "a2@example.com",
		Password: "s3cret-pass", PasswordConfirmation: "s3cret-pass",
	})
	assert.ErrorIs(t, err, ErrValidation)

	tok, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)

	claims, err := auth.ValidateToken(tok.AccessToken)
	require.NoError(t, err)
	actor := ActorFor(claims)
	assert.Equal(t, u.ID, actor.UserID)
	assert.False(t, actor.CanManage())

	me, err := svc.UpdateProfile(ctx, actor, ProfileInput{Email: "alice@new.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example.com", me.Email)

	me, err = svc.Profile(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example.com", me.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(testkit.DB(t))
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{
		Username: "bob", Email: "bob@example.com",
		Password: "password1", PasswordConfirmation: "password1",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Username: "bob", Password: "wrong-one"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRequiresConfirmation(t *testing.T) {
	svc := NewAuthService(testkit.DB(t))
	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "carol", Email: "carol@example.com",
		Password: "password1", PasswordConfirmation: "password2",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "password")
}

func TestProfileRequiresAuthentication(t *testing.T) {
	svc := NewAuthService(testkit.DB(t))
	_, err := svc.Profile(context.Background(), Anonymous)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
