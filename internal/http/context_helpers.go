package httpx

import (
	"context"

	domainauth "github.com/neighborcast/neighborcast-api/internal/domain/auth"
	"github.com/neighborcast/neighborcast-api/internal/service"
)

// principalKey is an unexported context key type to avoid collisions across packages.
type principalKey struct{}

// SetPrincipalInContext returns a child context that carries the given principal.
func SetPrincipalInContext(ctx context.Context, p domainauth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated principal and whether one is present.
func PrincipalFromContext(ctx context.Context) (domainauth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domainauth.Principal)
	return p, ok
}

// actorFromContext returns the user id recorded as the actor of mutations.
func actorFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.UserID
	}
	return ""
}

// submitterFromContext describes the caller to JobService.Submit.
func submitterFromContext(ctx context.Context) service.Submitter {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return service.Submitter{}
	}
	return service.Submitter{ID: p.UserID, CanActivate: p.IsAdmin()}
}
