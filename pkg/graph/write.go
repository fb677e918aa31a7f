package graph

import (
	"strings"

	"github.com/warden-acs/warden/pkg/acserr"
)

// CreateUser adds a new user. email is unique per tenant (case-insensitive).
func (g *Graph) CreateUser(tenantID, email string) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, acserr.Validation("user email must not be empty")
	}
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	lower := strings.ToLower(email)
	for _, u := range a.users {
		if strings.ToLower(u.Email) == lower {
			return nil, acserr.Conflict("user with email %q already exists", email)
		}
	}

	a.nextUserID++
	id := a.nextUserID
	u := &User{
		ID:       id,
		TenantID: tenantID,
		Email:    email,
		Active:   true,
		Entity:   EntityRef{Kind: EntityUser, ID: id},
	}
	a.users[id] = u
	a.version++
	return u, nil
}

// CreateGroup adds a new group. name is unique per tenant.
func (g *Graph) CreateGroup(tenantID, name string) (*Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, acserr.Validation("group name must not be empty")
	}
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, grp := range a.groups {
		if grp.Name == name {
			return nil, acserr.Conflict("group with name %q already exists", name)
		}
	}

	a.nextGroupID++
	id := a.nextGroupID
	grp := &Group{ID: id, TenantID: tenantID, Name: name, Entity: EntityRef{Kind: EntityGroup, ID: id}}
	a.groups[id] = grp
	a.version++
	return grp, nil
}

// CreateRole adds a new role. name is unique per tenant.
func (g *Graph) CreateRole(tenantID, name string) (*Role, error) {
	if strings.TrimSpace(name) == "" {
		return nil, acserr.Validation("role name must not be empty")
	}
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, r := range a.roles {
		if r.Name == name {
			return nil, acserr.Conflict("role with name %q already exists", name)
		}
	}

	a.nextRoleID++
	id := a.nextRoleID
	r := &Role{ID: id, TenantID: tenantID, Name: name, Entity: EntityRef{Kind: EntityRole, ID: id}}
	a.roles[id] = r
	a.version++
	return r, nil
}

// CreateResource adds a new resource. uriPattern is unique per tenant and
// is compiled immediately so ResourcesMatching never recompiles on the
// read path.
func (g *Graph) CreateResource(tenantID, uriPattern string) (*Resource, error) {
	if strings.TrimSpace(uriPattern) == "" {
		return nil, acserr.Validation("resource uriPattern must not be empty")
	}
	compiled, spec, err := compilePattern(uriPattern)
	if err != nil {
		return nil, acserr.Validation("invalid uriPattern %q: %v", uriPattern, err)
	}

	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, r := range a.resources {
		if r.URIPattern == uriPattern {
			return nil, acserr.Conflict("resource with uriPattern %q already exists", uriPattern)
		}
	}

	a.nextResourceID++
	id := a.nextResourceID
	r := &Resource{ID: id, TenantID: tenantID, URIPattern: uriPattern, compiled: compiled, specificity: spec}
	a.resources[id] = r
	a.version++
	return r, nil
}

// CreateVerb registers a new verb name in the tenant's verb registry.
func (g *Graph) CreateVerb(tenantID, name string) (*Verb, error) {
	if strings.TrimSpace(name) == "" {
		return nil, acserr.Validation("verb name must not be empty")
	}
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, v := range a.verbs {
		if v.Name == name {
			return v, nil // idempotent: verbs are a shared registry, not per-owner
		}
	}

	a.nextVerbID++
	id := a.nextVerbID
	v := &Verb{ID: id, TenantID: tenantID, Name: name}
	a.verbs[id] = v
	a.version++
	return v, nil
}

// EnsureScheme returns the PermissionScheme for entity, creating one if
// this is the entity's first access rule.
func (g *Graph) EnsureScheme(tenantID string, entity EntityRef) (*PermissionScheme, error) {
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if ids := a.schemesByEntity[entity]; len(ids) > 0 {
		return a.schemes[ids[0]], nil
	}

	a.nextSchemeID++
	id := a.nextSchemeID
	s := &PermissionScheme{ID: id, TenantID: tenantID, EntityID: entity}
	a.schemes[id] = s
	a.schemesByEntity[entity] = append(a.schemesByEntity[entity], id)
	a.version++
	return s, nil
}

// AddUserToGroup adds user to group directly. Idempotent: a second call
// with the same pair leaves the membership set unchanged (spec §8).
func (g *Graph) AddUserToGroup(tenantID string, userID, groupID int) error {
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.users[userID]; !ok {
		return acserr.NotFound("user %d not found", userID)
	}
	if _, ok := a.groups[groupID]; !ok {
		return acserr.NotFound("group %d not found", groupID)
	}

	if hasEdge(a.userGroups, userID, groupID) {
		return nil // idempotent no-op
	}
	addEdge(a.userGroups, userID, groupID)
	addEdge(a.groupUsers, groupID, userID)
	a.version++
	return nil
}

// RemoveUserFromGroup removes a direct membership. Removing a non-member
// is a Conflict per spec §7.
func (g *Graph) RemoveUserFromGroup(tenantID string, userID, groupID int) error {
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if !hasEdge(a.userGroups, userID, groupID) {
		return acserr.Conflict("user %d is not a member of group %d", userID, groupID)
	}
	removeEdge(a.userGroups, userID, groupID)
	removeEdge(a.groupUsers, groupID, userID)
	a.version++
	return nil
}

// LinkGroups adds a parent -> child edge. Rejected when childID == parentID
// or when childID is already an ancestor of parentID (which would close a
// cycle). The graph is left unchanged on rejection.
func (g *Graph) LinkGroups(tenantID string, parentID, childID int) error {
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.groups[parentID]; !ok {
		return acserr.NotFound("group %d not found", parentID)
	}
	if _, ok := a.groups[childID]; !ok {
		return acserr.NotFound("group %d not found", childID)
	}
	if parentID == childID {
		return acserr.Validation("a group cannot be its own parent")
	}
	if a.isAncestor(childID, parentID) {
		return acserr.Validation("linking group %d as a child of %d would create a cycle", childID, parentID)
	}
	if hasEdge(a.groupChildren, parentID, childID) {
		return nil // idempotent no-op
	}

	addEdge(a.groupChildren, parentID, childID)
	addEdge(a.groupParents, childID, parentID)
	a.version++
	return nil
}

// UnlinkGroups removes a parent -> child edge, restoring the prior
// reachability set (spec §8 round-trip property).
func (g *Graph) UnlinkGroups(tenantID string, parentID, childID int) error {
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if !hasEdge(a.groupChildren, parentID, childID) {
		return acserr.Conflict("group %d is not a parent of group %d", parentID, childID)
	}
	removeEdge(a.groupChildren, parentID, childID)
	removeEdge(a.groupParents, childID, parentID)
	a.version++
	return nil
}

// AssignRoleToUser grants role directly to user. Idempotent.
func (g *Graph) AssignRoleToUser(tenantID string, userID, roleID int) error {
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.users[userID]; !ok {
		return acserr.NotFound("user %d not found", userID)
	}
	if _, ok := a.roles[roleID]; !ok {
		return acserr.NotFound("role %d not found", roleID)
	}
	if hasEdge(a.userRoles, userID, roleID) {
		return nil
	}
	addEdge(a.userRoles, userID, roleID)
	addEdge(a.roleUsers, roleID, userID)
	a.version++
	return nil
}

// RemoveRoleFromUser revokes a direct role assignment.
func (g *Graph) RemoveRoleFromUser(tenantID string, userID, roleID int) error {
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if !hasEdge(a.userRoles, userID, roleID) {
		return acserr.Conflict("user %d does not have role %d", userID, roleID)
	}
	removeEdge(a.userRoles, userID, roleID)
	removeEdge(a.roleUsers, roleID, userID)
	a.version++
	return nil
}

// AssignRoleToGroup grants role to every member of group (present and
// future, via transitive resolution at evaluation time). Idempotent.
func (g *Graph) AssignRoleToGroup(tenantID string, groupID, roleID int) error {
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.groups[groupID]; !ok {
		return acserr.NotFound("group %d not found", groupID)
	}
	if _, ok := a.roles[roleID]; !ok {
		return acserr.NotFound("role %d not found", roleID)
	}
	if hasEdge(a.groupRoles, groupID, roleID) {
		return nil
	}
	addEdge(a.groupRoles, groupID, roleID)
	addEdge(a.roleGroups, roleID, groupID)
	a.version++
	return nil
}

// RemoveRoleFromGroup revokes a role assignment from a group.
func (g *Graph) RemoveRoleFromGroup(tenantID string, groupID, roleID int) error {
	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if !hasEdge(a.groupRoles, groupID, roleID) {
		return acserr.Conflict("group %d does not have role %d", groupID, roleID)
	}
	removeEdge(a.groupRoles, groupID, roleID)
	removeEdge(a.roleGroups, roleID, groupID)
	a.version++
	return nil
}

// SetAccess upserts a UriAccess row linking entity's scheme to resource for
// verb. Exactly one of grant/deny must be true.
func (g *Graph) SetAccess(tenantID string, entity EntityRef, resourceID, verbID int, grant, deny bool) (*UriAccess, error) {
	if grant == deny {
		return nil, acserr.Validation("exactly one of grant/deny must be true")
	}

	a := g.arena(tenantID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.resources[resourceID]; !ok {
		return nil, acserr.NotFound("resource %d not found", resourceID)
	}
	if _, ok := a.verbs[verbID]; !ok {
		return nil, acserr.NotFound("verb %d not found", verbID)
	}

	ids := a.schemesByEntity[entity]
	var schemeID int
	if len(ids) > 0 {
		schemeID = ids[0]
	} else {
		a.nextSchemeID++
		schemeID = a.nextSchemeID
		a.schemes[schemeID] = &PermissionScheme{ID: schemeID, TenantID: tenantID, EntityID: entity}
		a.schemesByEntity[entity] = append(a.schemesByEntity[entity], schemeID)
	}

	// Upsert: a (scheme, resource, verb) triple has at most one UriAccess row.
	for _, ua := range a.accesses {
		if ua.SchemeID == schemeID && ua.ResourceID == resourceID && ua.VerbID == verbID {
			ua.Grant = grant
			ua.Deny = deny
			a.version++
			return ua, nil
		}
	}

	a.nextAccessID++
	id := a.nextAccessID
	ua := &UriAccess{ID: id, SchemeID: schemeID, ResourceID: resourceID, VerbID: verbID, Grant: grant, Deny: deny}
	a.accesses[id] = ua
	a.version++
	return ua, nil
}
