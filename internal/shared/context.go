package shared

import "context"

// Role enumerates the coarse roles granted by the fronting auth proxy.
type Role string

const (
	// RoleAdmin manages taxonomies, hierarchies and assignments.
	RoleAdmin Role = "admin"
	// RoleContributor enters and submits indicator values.
	RoleContributor Role = "contributor"
	// RoleValidator approves or rejects submitted values.
	RoleValidator Role = "validator"
)

// Actor identifies the authenticated caller as asserted by the auth proxy.
type Actor struct {
	ID   int64
	Role Role
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context. Zero actor means anonymous.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}

// Allow reports whether the actor holds one of the listed roles.
func (a Actor) Allow(roles ...Role) bool {
	if a.ID == 0 {
		return false
	}
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}
