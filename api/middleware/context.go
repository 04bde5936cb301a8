package middleware

import "context"

// Actor is the authenticated caller. The zero value means anonymous.
type Actor struct {
	UserID string
	Role   string
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}

func UserIDFromContext(ctx context.Context) string { return ActorFromContext(ctx).UserID }

func RoleFromContext(ctx context.Context) string { return ActorFromContext(ctx).Role }

// WithUserID keeps any role already on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	actor := ActorFromContext(ctx)
	actor.UserID = userID
	return WithActor(ctx, actor)
}

func WithRole(ctx context.Context, role string) context.Context {
	actor := ActorFromContext(ctx)
	actor.Role = role
	return WithActor(ctx, actor)
}
