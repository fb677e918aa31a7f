package graph

import "github.com/warden-acs/warden/pkg/acserr"

// Depth selects direct-only or transitive traversal for membership queries.
type Depth int

const (
	Direct Depth = iota
	Transitive
)

// GetUser returns the user by id, or NotFound.
func (g *Graph) GetUser(tenantID string, userID int) (*User, error) {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return nil, acserr.NotFound("user %d not found", userID)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	u, ok := a.users[userID]
	if !ok {
		return nil, acserr.NotFound("user %d not found", userID)
	}
	return u, nil
}

// GetGroup returns the group by id, or NotFound.
func (g *Graph) GetGroup(tenantID string, groupID int) (*Group, error) {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return nil, acserr.NotFound("group %d not found", groupID)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	grp, ok := a.groups[groupID]
	if !ok {
		return nil, acserr.NotFound("group %d not found", groupID)
	}
	return grp, nil
}

// GetRole returns the role by id, or NotFound.
func (g *Graph) GetRole(tenantID string, roleID int) (*Role, error) {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return nil, acserr.NotFound("role %d not found", roleID)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.roles[roleID]
	if !ok {
		return nil, acserr.NotFound("role %d not found", roleID)
	}
	return r, nil
}

// GetResource returns the resource by id, or NotFound.
func (g *Graph) GetResource(tenantID string, resourceID int) (*Resource, error) {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return nil, acserr.NotFound("resource %d not found", resourceID)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.resources[resourceID]
	if !ok {
		return nil, acserr.NotFound("resource %d not found", resourceID)
	}
	return r, nil
}

// VerbIDByName resolves a verb name to its tenant-scoped id. ok is false
// when the verb has never been registered for the tenant.
func (g *Graph) VerbIDByName(tenantID, name string) (id int, ok bool) {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return 0, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, v := range a.verbs {
		if v.Name == name {
			return v.ID, true
		}
	}
	return 0, false
}

// UsersInGroup lists the users belonging to group, directly or
// transitively through child groups.
func (g *Graph) UsersInGroup(tenantID string, groupID int, depth Depth) []int {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	if depth == Direct {
		return setKeys(a.groupUsers[groupID])
	}

	seen := map[int]struct{}{}
	groups := []int{groupID}
	visitedGroups := map[int]struct{}{}
	for len(groups) > 0 {
		gid := groups[0]
		groups = groups[1:]
		if _, ok := visitedGroups[gid]; ok {
			continue
		}
		visitedGroups[gid] = struct{}{}
		for uid := range a.groupUsers[gid] {
			seen[uid] = struct{}{}
		}
		for childID := range a.groupChildren[gid] {
			groups = append(groups, childID)
		}
	}
	return setKeys(seen)
}

// GroupsForUser lists the groups user belongs to, directly or
// transitively through parent groups.
func (g *Graph) GroupsForUser(tenantID string, userID int, depth Depth) []int {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	direct := setKeys(a.userGroups[userID])
	if depth == Direct {
		return direct
	}

	seen := map[int]struct{}{}
	queue := append([]int{}, direct...)
	visited := map[int]struct{}{}
	for len(queue) > 0 {
		gid := queue[0]
		queue = queue[1:]
		if _, ok := visited[gid]; ok {
			continue
		}
		visited[gid] = struct{}{}
		seen[gid] = struct{}{}
		for parentID := range a.groupParents[gid] {
			queue = append(queue, parentID)
		}
	}
	return setKeys(seen)
}

// RoleScope selects which roles RolesForUser returns.
type RoleScope int

const (
	RoleDirect RoleScope = iota
	RoleInherited
	RoleEffective
)

// RolesForUser resolves a user's roles per scope:
//   - RoleDirect: user -> role edges only
//   - RoleInherited: roles attached to any group the user transitively
//     belongs to
//   - RoleEffective: the union of direct and inherited
func (g *Graph) RolesForUser(tenantID string, userID int, scope RoleScope) []int {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	switch scope {
	case RoleDirect:
		return setKeys(a.userRoles[userID])
	case RoleInherited:
		return a.inheritedRoles(userID)
	default: // RoleEffective
		seen := map[int]struct{}{}
		for rid := range a.userRoles[userID] {
			seen[rid] = struct{}{}
		}
		for _, rid := range a.inheritedRoles(userID) {
			seen[rid] = struct{}{}
		}
		return setKeys(seen)
	}
}

// inheritedRoles walks every group the user transitively belongs to and
// collects roles attached to those groups. Caller holds the read lock.
func (a *tenantArena) inheritedRoles(userID int) []int {
	direct := setKeys(a.userGroups[userID])
	seenGroups := map[int]struct{}{}
	queue := append([]int{}, direct...)
	for len(queue) > 0 {
		gid := queue[0]
		queue = queue[1:]
		if _, ok := seenGroups[gid]; ok {
			continue
		}
		seenGroups[gid] = struct{}{}
		for parentID := range a.groupParents[gid] {
			queue = append(queue, parentID)
		}
	}

	seenRoles := map[int]struct{}{}
	for gid := range seenGroups {
		for rid := range a.groupRoles[gid] {
			seenRoles[rid] = struct{}{}
		}
	}
	return setKeys(seenRoles)
}

// ResourcesMatching returns every resource in tenantID whose uriPattern
// matches uri. Linear in the number of resources registered for the
// tenant, per spec's performance contract.
func (g *Graph) ResourcesMatching(tenantID, uri string) []*Resource {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []*Resource
	for _, r := range a.resources {
		if r.Matches(uri) {
			out = append(out, r)
		}
	}
	return out
}

// SchemeForEntity returns the PermissionScheme id(s) owned by entity, if any.
func (g *Graph) SchemeForEntity(tenantID string, entity EntityRef) []int {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := a.schemesByEntity[entity]
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// AccessesForScheme returns every UriAccess row belonging to schemeID.
func (g *Graph) AccessesForScheme(tenantID string, schemeID int) []*UriAccess {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*UriAccess
	for _, ua := range a.accesses {
		if ua.SchemeID == schemeID {
			out = append(out, ua)
		}
	}
	return out
}

func setKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
