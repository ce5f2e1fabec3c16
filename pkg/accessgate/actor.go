package accessgate

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the authenticated caller as far as the gate is concerned.
type Actor struct {
	ID        uuid.UUID
	Superuser bool
}

type actorKey struct{}

// WithActor adds the caller to the context. Auth middleware sets this
// before the gate runs.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext retrieves the caller from the context. The zero Actor
// (anonymous, not a superuser) is returned when none is set.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}
