package auth

import (
	"context"

	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/mantonx/seasontracker/internal/metrics"
	"github.com/mantonx/seasontracker/internal/types"
)

// Authorizer decides whether the caller in ctx holds role. It returns nil,
// an UNAUTHORIZED or FORBIDDEN *types.AppError, or an INTERNAL one when the
// decision could not be made.
type Authorizer interface {
	Authorize(ctx context.Context, role string) error
}

// RoleSource lists the roles granted to a member.
type RoleSource interface {
	Roles(ctx context.Context, memberID uint32) ([]string, error)
}

// RoleAuthorizer checks roles against persistence on every call, so a
// revoked role takes effect on the next request.
type RoleAuthorizer struct {
	roles RoleSource
}

// NewRoleAuthorizer creates a RoleAuthorizer.
func NewRoleAuthorizer(roles RoleSource) *RoleAuthorizer {
	return &RoleAuthorizer{roles: roles}
}

// Authorize implements Authorizer.
func (a *RoleAuthorizer) Authorize(ctx context.Context, role string) error {
	caller, ok := CallerFrom(ctx)
	if !ok {
		metrics.AuthorizationDecisionsTotal.WithLabelValues(role, "unauthenticated").Inc()
		return types.NewUnauthorizedError("authentication required")
	}

	granted, err := a.roles.Roles(ctx, caller.MemberID)
	if err != nil {
		metrics.AuthorizationDecisionsTotal.WithLabelValues(role, "error").Inc()
		return types.NewInternalError("failed to load member roles", err).
			WithContext("member_id", caller.MemberID)
	}

	for _, r := range granted {
		if r == role {
			metrics.AuthorizationDecisionsTotal.WithLabelValues(role, "allow").Inc()
			return nil
		}
	}

	metrics.AuthorizationDecisionsTotal.WithLabelValues(role, "deny").Inc()
	logger.Debug("role check denied", "member_id", caller.MemberID, "role", role)
	return types.NewForbiddenError(role).WithContext("member_id", caller.MemberID)
}

// RequireCaller returns the caller in ctx or an UNAUTHORIZED error.
func RequireCaller(ctx context.Context) (Caller, error) {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return Caller{}, types.NewUnauthorizedError("authentication required")
	}
	return caller, nil
}
