package rbac

import "github.com/hwmarket/backend/internal/models"

// Permission constants
const (
	PermCreateListing  = "create_listing"
	PermManageListing  = "manage_listing"
	PermSuspendListing = "suspend_listing"
	PermCheckout       = "checkout"
	PermOpenDispute    = "open_dispute"
	PermReviewDispute  = "review_dispute"
	PermResolveDispute = "resolve_dispute"
	PermReadAuditLog   = "read_audit_log"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	models.RoleUser: {
		PermCreateListing, PermManageListing, PermCheckout, PermOpenDispute,
	},
	models.RoleModerator: {
		PermSuspendListing, PermReviewDispute, PermResolveDispute, PermReadAuditLog,
	},
	models.RoleAdmin: {
		PermCreateListing, PermManageListing, PermSuspendListing, PermCheckout,
		PermOpenDispute, PermReviewDispute, PermResolveDispute, PermReadAuditLog,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// IsAdjudicator reports whether the role may issue dispute verdicts.
func IsAdjudicator(role string) bool {
	return HasPermission(role, PermResolveDispute)
}
