package graph

import "sync"

// tenantArena holds every node for one tenant behind a single RWMutex.
// Writes are serialized per tenant (spec §5); reads may run concurrently
// and never observe a torn structure because every mutation holds the
// write lock for its entire duration.
type tenantArena struct {
	mu sync.RWMutex

	users     map[int]*User
	groups    map[int]*Group
	roles     map[int]*Role
	resources map[int]*Resource
	verbs     map[int]*Verb
	schemes   map[int]*PermissionScheme
	accesses  map[int]*UriAccess

	// userGroups/groupUsers: direct user<->group membership.
	userGroups map[int]map[int]struct{} // userID -> set of groupID
	groupUsers map[int]map[int]struct{} // groupID -> set of userID

	// groupParents/groupChildren: DAG edges (parentID, childID).
	groupParents  map[int]map[int]struct{} // childID -> set of parentID
	groupChildren map[int]map[int]struct{} // parentID -> set of childID

	userRoles  map[int]map[int]struct{} // userID -> set of roleID (direct)
	roleUsers  map[int]map[int]struct{} // roleID -> set of userID
	groupRoles map[int]map[int]struct{} // groupID -> set of roleID
	roleGroups map[int]map[int]struct{} // roleID -> set of groupID

	// schemesByEntity indexes PermissionScheme by owning entity.
	schemesByEntity map[EntityRef][]int

	nextUserID     int
	nextGroupID    int
	nextRoleID     int
	nextResourceID int
	nextVerbID     int
	nextSchemeID   int
	nextAccessID   int

	// version increments on every write that changes state (idempotent
	// no-ops leave it unchanged); Evaluator uses it to invalidate memoized
	// decisions conservatively (spec §4.4).
	version int64
}

func newTenantArena() *tenantArena {
	return &tenantArena{
		users:           make(map[int]*User),
		groups:          make(map[int]*Group),
		roles:           make(map[int]*Role),
		resources:       make(map[int]*Resource),
		verbs:           make(map[int]*Verb),
		schemes:         make(map[int]*PermissionScheme),
		accesses:        make(map[int]*UriAccess),
		userGroups:      make(map[int]map[int]struct{}),
		groupUsers:      make(map[int]map[int]struct{}),
		groupParents:    make(map[int]map[int]struct{}),
		groupChildren:   make(map[int]map[int]struct{}),
		userRoles:       make(map[int]map[int]struct{}),
		roleUsers:       make(map[int]map[int]struct{}),
		groupRoles:      make(map[int]map[int]struct{}),
		roleGroups:      make(map[int]map[int]struct{}),
		schemesByEntity: make(map[EntityRef][]int),
	}
}

// Graph is the permission graph for every tenant. It is safe for
// concurrent use: reads take a per-tenant read lock, writes take a
// per-tenant write lock, and no lock is ever held across tenants.
type Graph struct {
	mu      sync.Mutex // guards the tenants map itself, not its contents
	tenants map[string]*tenantArena
}

// New creates an empty permission graph.
func New() *Graph {
	return &Graph{tenants: make(map[string]*tenantArena)}
}

// arena returns the tenant's arena, creating it on first use.
func (g *Graph) arena(tenantID string) *tenantArena {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.tenants[tenantID]
	if !ok {
		a = newTenantArena()
		g.tenants[tenantID] = a
	}
	return a
}

// arenaReadOnly returns the tenant's arena without creating one, or nil.
func (g *Graph) arenaReadOnly(tenantID string) *tenantArena {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tenants[tenantID]
}

// Version returns the tenant's current mutation counter. A value of 0
// means the tenant has never been touched (or the graph is empty).
func (g *Graph) Version(tenantID string) int64 {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return 0
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.version
}

func addEdge(m map[int]map[int]struct{}, from, to int) {
	set, ok := m[from]
	if !ok {
		set = make(map[int]struct{})
		m[from] = set
	}
	set[to] = struct{}{}
}

func removeEdge(m map[int]map[int]struct{}, from, to int) {
	if set, ok := m[from]; ok {
		delete(set, to)
		if len(set) == 0 {
			delete(m, from)
		}
	}
}

func hasEdge(m map[int]map[int]struct{}, from, to int) bool {
	set, ok := m[from]
	if !ok {
		return false
	}
	_, ok = set[to]
	return ok
}
