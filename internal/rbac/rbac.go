// Package rbac is the single capability-check collaborator. Every
// mutating entry point consults it instead of re-deriving role logic.
package rbac

type Role string
type Action string

const (
	RoleViewer     Role = "viewer"
	RoleContractor Role = "contractor"
	RoleResident   Role = "resident"
	RoleInspector  Role = "inspector"
	RoleAdmin      Role = "admin"
)

const (
	ActionRead  Action = "read"
	ActionEdit  Action = "edit"
	ActionSign  Action = "sign"
	ActionAdmin Action = "admin"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleInspector, RoleResident:
		return action == ActionRead || action == ActionEdit || action == ActionSign
	case RoleContractor:
		return action == ActionRead || action == ActionSign
	case RoleViewer:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleViewer, RoleContractor, RoleResident, RoleInspector, RoleAdmin:
		return Role(role)
	default:
		return RoleViewer
	}
}

// Capability scopes a role to one view of one document. ReadOnly is
// set when the view is a historical version, which forbids every
// mutation regardless of role.
type Capability struct {
	Role     Role
	ReadOnly bool
}

func (c Capability) CanEditContent() bool {
	return !c.ReadOnly && Can(c.Role, ActionEdit)
}

func (c Capability) CanSign() bool {
	return !c.ReadOnly && Can(c.Role, ActionSign)
}
