// Package graph implements the in-memory permission graph: users, groups,
// roles, resources, and the grant/deny facts that link them. The graph
// owns every node; external packages hold stable integer ids, never
// pointers into the arena.
package graph

import "regexp"

// EntityKind identifies which concrete node an EntityRef points at.
type EntityKind int

const (
	EntityUser EntityKind = iota
	EntityGroup
	EntityRole
)

func (k EntityKind) String() string {
	switch k {
	case EntityUser:
		return "user"
	case EntityGroup:
		return "group"
	case EntityRole:
		return "role"
	default:
		return "unknown"
	}
}

// EntityRef is the polymorphic "owner of permissions" referenced by spec's
// Entity abstraction. Exactly one of {User, Group, Role} maps to a given
// EntityRef.
type EntityRef struct {
	Kind EntityKind
	ID   int
}

// User is a Principal: id:int, tenantId, email (unique per tenant), active.
type User struct {
	ID       int
	TenantID string
	Email    string
	Active   bool
	Entity   EntityRef
}

// Group participates in parent/child links forming a DAG within one tenant.
type Group struct {
	ID       int
	TenantID string
	Name     string
	Entity   EntityRef
}

// Role is a named collection of permissions assignable to users and groups.
type Role struct {
	ID       int
	TenantID string
	Name     string
	Entity   EntityRef
}

// Resource anchors a URI pattern. uriPattern is unique per tenant.
type Resource struct {
	ID         int
	TenantID   string
	URIPattern string
	compiled   *regexp.Regexp
	specificity specificity
}

// Verb is a tenant-scoped named action (GET, POST, READ, WRITE, ...).
type Verb struct {
	ID       int
	TenantID string
	Name     string
}

// PermissionScheme anchors a set of UriAccess rows to one entity.
type PermissionScheme struct {
	ID       int
	TenantID string
	EntityID EntityRef
}

// UriAccess is a single grant-or-deny fact. Exactly one of Grant, Deny is true.
type UriAccess struct {
	ID         int
	SchemeID   int
	ResourceID int
	VerbID     int
	Grant      bool
	Deny       bool
}

// MembershipKind distinguishes the three membership relations the graph
// tracks beyond group parent/child links.
type MembershipKind int

const (
	UserInGroup MembershipKind = iota
	UserInRole
	GroupInRole
)
