package document

import "context"

type actorKey struct{}

// WithActor returns a context whose writes are stamped with name.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorKey{}, name)
}

// ActorFromContext returns the actor name carried by ctx, or "".
func ActorFromContext(ctx context.Context) string {
	name, _ := ctx.Value(actorKey{}).(string)
	return name
}
