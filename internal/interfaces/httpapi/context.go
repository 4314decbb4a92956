package httpapi

import (
	"context"

	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	"github.com/andrei73/pushup-counter/internal/domain/user"
)

type contextKey string

const (
	principalContextKey contextKey = "auth_principal"
	actorContextKey     contextKey = "auth_actor"
)

func withPrincipal(ctx context.Context, p user.Principal, elevatedRoles []string) context.Context {
	ctx = context.WithValue(ctx, principalContextKey, p)
	return context.WithValue(ctx, actorContextKey, pushup.Actor{
		UserID:   p.UserID,
		Elevated: p.HasAnyRole(elevatedRoles...),
	})
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(user.Principal)
	return p, ok
}

func actorFromContext(ctx context.Context) (pushup.Actor, bool) {
	a, ok := ctx.Value(actorContextKey).(pushup.Actor)
	return a, ok
}
