package models

// Role is the per-irrigation-system authorization level of a grant.
// The hierarchy is totally ordered: each role includes every role below it.
type Role string

const (
	RoleReadOnly     Role = "READ_ONLY"
	RoleDataEntry    Role = "DATA_ENTRY"
	RoleManager      Role = "MANAGER"
	RoleSuperManager Role = "SUPER_MANAGER"
)

// roleOrder maps each role to its position in the hierarchy.
var roleOrder = map[Role]int{
	RoleReadOnly:     0,
	RoleDataEntry:    1,
	RoleManager:      2,
	RoleSuperManager: 3,
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleOrder[r]
	return ok
}

// Covers reports whether a user holding r may act as required.
// Unknown roles never cover anything.
func (r Role) Covers(required Role) bool {
	ri, ok := roleOrder[r]
	if !ok {
		return false
	}
	qi, ok := roleOrder[required]
	if !ok {
		return false
	}
	return ri >= qi
}

// Operation is the kind of action a request performs against a collection.
type Operation int

const (
	OpRead Operation = iota
	OpCreate
	OpUpdate
	OpDelete
)

// requiredRole is the total mapping from operation kind to the minimum role
// needed on the target irrigation system.
var requiredRole = map[Operation]Role{
	OpRead:   RoleReadOnly,
	OpCreate: RoleDataEntry,
	OpUpdate: RoleDataEntry,
	OpDelete: RoleManager,
}

// RequiredRole returns the minimum role for op. Unknown operations require
// the strictest role.
func RequiredRole(op Operation) Role {
	if r, ok := requiredRole[op]; ok {
		return r
	}
	return RoleSuperManager
}
