package rbac

import (
	"testing"

	"github.com/hwmarket/backend/internal/models"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		expected   bool
	}{
		{models.RoleUser, PermCheckout, true},
		{models.RoleUser, PermOpenDispute, true},
		{models.RoleUser, PermResolveDispute, false},
		{models.RoleUser, PermReadAuditLog, false},
		{models.RoleModerator, PermResolveDispute, true},
		{models.RoleModerator, PermCheckout, false},
		{models.RoleAdmin, PermResolveDispute, true},
		{models.RoleAdmin, PermCheckout, true},
		{"UNKNOWN", PermCheckout, false},
		{"", PermResolveDispute, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.permission, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.permission); got != tt.expected {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.permission, got, tt.expected)
			}
		})
	}
}

func TestIsAdjudicator(t *testing.T) {
	if IsAdjudicator(models.RoleUser) {
		t.Error("USER must not be an adjudicator")
	}
	if !IsAdjudicator(models.RoleAdmin) {
		t.Error("ADMIN must be an adjudicator")
	}
	if !IsAdjudicator(models.RoleModerator) {
		t.Error("MODERATOR must be an adjudicator")
	}
}
