package lifecycle

import (
	"context"

	"github.com/credhouse/credhouse/storage/model"
)

type actorKey struct{}

// WithActor returns a copy of ctx that carries profile as the acting user
func WithActor(ctx context.Context, profile *model.UserProfile) context.Context {
	if profile == nil {
		return ctx
	}
	p := *profile
	return context.WithValue(ctx, actorKey{}, &p)
}

// ActorFromContext returns the acting user stored in ctx
func ActorFromContext(ctx context.Context) (*model.UserProfile, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(actorKey{}).(*model.UserProfile)
	return p, ok && p != nil
}

// ErrNoSession is returned when an operation requires a signed in user but
// the context carries none
const ErrNoSession = model.PermissionError("not signed in")

// requireActor returns the acting user if it has the given role
func requireActor(ctx context.Context, role model.Role) (*model.UserProfile, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	if actor.Role != role {
		return nil, model.PermissionErrorFmt("only %s users may do this, signed in as %s", role, actor.Role)
	}
	return actor, nil
}
