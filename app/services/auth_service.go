package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"github.com/shashiranjanraj/stockroom/pkg/validate"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Login for an unknown user or wrong
// password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Username             string `json:"username"              validate:"required,min=3,max=150"`
	Email                string `json:"email"                 validate:"required,email"`
	Password             string `json:"password"              validate:"required,min=8,confirmed"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// LoginInput is the sign-in payload.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput updates the signed-in user's own account.
type ProfileInput struct {
	Email string `json:"email" validate:"required,email"`
}

// Token is a signed access token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AuthService registers users and issues tokens.
type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{users: repositories.NewUserRepository(db)}
}

// Register creates a regular (non-staff) account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := fieldErrors(validate.Struct(in)); err != nil {
		return nil, err
	}
	taken, err := s.users.UsernameTaken(in.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, invalid("username", "A user with that username already exists.")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := models.User{Username: in.Username, Email: in.Email, Password: hash}
	if err := s.users.Create(&u); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("auth: user registered", "user_id", u.ID, "username", u.Username)
	return &u, nil
}

// Login checks credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Token, error) {
	if err := fieldErrors(validate.Struct(in)); err != nil {
		return nil, err
	}
	u, err := s.users.FindByUsername(strings.TrimSpace(in.Username))
	if orm.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.Password, in.Password) {
		logger.WithCtx(ctx).Warn("auth: failed login", "username", u.Username)
		return nil, ErrInvalidCredentials
	}

	tok, err := auth.GenerateToken(u.ID, u.Username, u.IsStaff, u.IsSuperuser)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: tok, TokenType: "Bearer", ExpiresIn: int(auth.TokenTTL().Seconds())}, nil
}

// Profile returns the actor's own account.
func (s *AuthService) Profile(ctx context.Context, actor Actor) (*models.User, error) {
	if err := actor.requireAuthenticated(); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(actor.UserID)
	if orm.IsNotFound(err) {
		return nil, notFound("user", actor.UserID)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile changes the actor's email.
func (s *AuthService) UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (*models.User, error) {
	u, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := fieldErrors(validate.Struct(in)); err != nil {
		return nil, err
	}
	u.Email = in.Email
	if err := s.users.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}

// ActorFor builds the Actor for token claims.
func ActorFor(c *auth.Claims) Actor {
	return Actor{
		UserID:        c.UserID,
		Username:      c.Username,
		Authenticated: true,
		Staff:         c.Staff,
		Superuser:     c.Superuser,
	}
}
