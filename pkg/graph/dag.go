package graph

// IsAncestor reports whether candidateAncestor is reachable by walking
// parent-edges upward from node (i.e. candidateAncestor is an ancestor of
// node in the group hierarchy). LinkGroups(parentID, childID) must reject
// the new edge whenever IsAncestor(childID, parentID) holds — adding
// parentID -> childID would otherwise close a cycle back to childID.
//
// Called with the tenant's read lock already held by the caller.
func (a *tenantArena) isAncestor(candidateAncestor, node int) bool {
	if candidateAncestor == node {
		return true
	}
	visited := make(map[int]struct{})
	queue := []int{node}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		for parentID := range a.groupParents[cur] {
			if parentID == candidateAncestor {
				return true
			}
			queue = append(queue, parentID)
		}
	}
	return false
}

// IsAncestor is the exported, lock-acquiring form of isAncestor.
func (g *Graph) IsAncestor(tenantID string, candidateAncestor, node int) bool {
	a := g.arenaReadOnly(tenantID)
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.isAncestor(candidateAncestor, node)
}
