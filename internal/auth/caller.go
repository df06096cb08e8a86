// Package auth identifies callers from bearer tokens and checks their roles.
package auth

import "context"

// RoleCanManageTvShows gates every TV show mutation.
const RoleCanManageTvShows = "CanManageTvShows"

// Caller is an identified member making a request.
type Caller struct {
	MemberID uint32 `json:"member_id"`
	Name     string `json:"name"`
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}
