package services

import (
	"context"

	"github.com/shashiranjanraj/stockroom/pkg/auth"
)

// Actor is the identity a service call runs as.
type Actor struct {
	UserID        uint
	Username      string
	Authenticated bool
	Staff         bool
	Superuser     bool
}

// SystemActor runs scheduled and CLI work.
var SystemActor = Actor{Username: "system", Authenticated: true, Staff: true, Superuser: true}

// Anonymous is the zero Actor.
var Anonymous = Actor{}

// CanManage reports whether the actor may change catalog data.
func (a Actor) CanManage() bool {
	return a.Authenticated && (a.Staff || a.Superuser)
}

func (a Actor) requireAuthenticated() error {
	if !a.Authenticated {
		return ErrPermissionDenied
	}
	return nil
}

func (a Actor) requireManage() error {
	if !a.CanManage() {
		return ErrPermissionDenied
	}
	return nil
}

type actorKey struct{}

// WithActor stores a in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored in ctx. Without one it falls back to
// the token claims put there by the auth middleware, then to Anonymous.
func ActorFrom(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	if c := auth.ClaimsFrom(ctx); c != nil {
		return ActorFor(c)
	}
	return Anonymous
}
