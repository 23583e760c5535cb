package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrPermissionDenied = errors.New("permission denied")
)

// Role is granted to a token holder within one organization.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
	RoleViewer Role = "viewer"
)

// Permission represents an authorized action.
type Permission string

const (
	PermVariablesRead     Permission = "variables:read"
	PermFunctionsValidate Permission = "functions:validate"
	PermPluginsList       Permission = "plugins:list"
	PermPluginsInstall    Permission = "plugins:install"
)

// RolePermissions maps roles to allowed permissions.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermVariablesRead,
		PermFunctionsValidate,
		PermPluginsList,
		PermPluginsInstall,
	},
	RoleAuthor: {
		PermVariablesRead,
		PermFunctionsValidate,
		PermPluginsList,
	},
	RoleViewer: {
		PermVariablesRead,
		PermPluginsList,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(perms, perm)
}

// RequirePermission checks that the caller may perform perm on orgID.
func RequirePermission(ctx context.Context, orgID uuid.UUID, perm Permission) error {
	principal := PrincipalFromContext(ctx)
	if principal == nil {
		return ErrUnauthenticated
	}

	if principal.OrgID != orgID {
		return fmt.Errorf("%w: token is scoped to organization %s", ErrPermissionDenied, principal.OrgID)
	}

	if !HasPermission(principal.Role, perm) {
		return fmt.Errorf("%w: %s requires %s", ErrPermissionDenied, principal.Role, perm)
	}

	return nil
}
