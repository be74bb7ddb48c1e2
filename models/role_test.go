package models

import "testing"

func TestRoleCovers(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		required Role
		expected bool
	}{
		{"read-only covers itself", RoleReadOnly, RoleReadOnly, true},
		{"read-only does not cover data-entry", RoleReadOnly, RoleDataEntry, false},
		{"read-only does not cover manager", RoleReadOnly, RoleManager, false},
		{"data-entry covers read-only", RoleDataEntry, RoleReadOnly, true},
		{"data-entry covers itself", RoleDataEntry, RoleDataEntry, true},
		{"data-entry does not cover manager", RoleDataEntry, RoleManager, false},
		{"manager covers data-entry", RoleManager, RoleDataEntry, true},
		{"manager does not cover super-manager", RoleManager, RoleSuperManager, false},
		{"super-manager covers everything", RoleSuperManager, RoleManager, true},
		{"unknown role covers nothing", Role("ADMIN"), RoleReadOnly, false},
		{"unknown required never held", RoleSuperManager, Role("OWNER"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Covers(tt.required); got != tt.expected {
				t.Errorf("%s.Covers(%s) = %v, expected %v", tt.role, tt.required, got, tt.expected)
			}
		})
	}
}

// Holding a role must imply holding every role below it, for every pair.
func TestRoleHierarchyIsMonotonic(t *testing.T) {
	ordered := []Role{RoleReadOnly, RoleDataEntry, RoleManager, RoleSuperManager}

	for i, held := range ordered {
		for j, required := range ordered {
			expected := i >= j
			if got := held.Covers(required); got != expected {
				t.Errorf("%s.Covers(%s) = %v, expected %v", held, required, got, expected)
			}
		}
	}
}

func TestRequiredRole(t *testing.T) {
	tests := []struct {
		name     string
		op       Operation
		expected Role
	}{
		{"read needs read-only", OpRead, RoleReadOnly},
		{"create needs data-entry", OpCreate, RoleDataEntry},
		{"update needs data-entry", OpUpdate, RoleDataEntry},
		{"delete needs manager", OpDelete, RoleManager},
		{"unknown op falls back to strictest", Operation(99), RoleSuperManager},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiredRole(tt.op); got != tt.expected {
				t.Errorf("RequiredRole(%d) = %s, expected %s", tt.op, got, tt.expected)
			}
		})
	}
}
