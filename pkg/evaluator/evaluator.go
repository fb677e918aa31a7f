package evaluator

import (
	"time"

	"github.com/warden-acs/warden/internal/telemetry"
	"github.com/warden-acs/warden/pkg/graph"
)

// defaultCacheTTL bounds how long a memoized decision may be served before
// it is recomputed even if the tenant version has not changed.
const defaultCacheTTL = 5 * time.Second

// Evaluator answers authorization questions against a permission graph.
type Evaluator struct {
	graph *graph.Graph
	cache *memoCache
}

// New creates an Evaluator over g. Pass cacheTTL = 0 to disable
// memoization entirely (every Evaluate call recomputes from the graph).
func New(g *graph.Graph, cacheTTL time.Duration) *Evaluator {
	var c *memoCache
	if cacheTTL > 0 {
		c = newMemoCache(cacheTTL)
	}
	return &Evaluator{graph: g, cache: c}
}

// NewDefault creates an Evaluator with the default cache TTL.
func NewDefault(g *graph.Graph) *Evaluator {
	return New(g, defaultCacheTTL)
}

// Evaluate answers "may principalID perform verb on uri within tenantID?"
//
// Evaluate is pure with respect to the graph: repeated calls against
// unchanged graph state return identical decisions (spec §8 invariant 3).
func (e *Evaluator) Evaluate(tenantID string, principalID int, verb, uri string) Result {
	start := time.Now()
	version := e.graph.Version(tenantID)
	key := cacheKey{tenantID: tenantID, principalID: principalID, verb: verb, uri: uri}

	if result, ok := e.cache.get(key, version); ok {
		telemetry.EvaluationDuration.WithLabelValues("hit").Observe(time.Since(start).Seconds())
		telemetry.EvaluationsTotal.WithLabelValues(tenantID, result.Decision.String()).Inc()
		return result
	}

	result := e.evaluate(tenantID, principalID, verb, uri)
	e.cache.put(key, version, result)

	telemetry.EvaluationDuration.WithLabelValues("miss").Observe(time.Since(start).Seconds())
	telemetry.EvaluationsTotal.WithLabelValues(tenantID, result.Decision.String()).Inc()
	return result
}

func (e *Evaluator) evaluate(tenantID string, principalID int, verb, uri string) Result {
	verbID, ok := e.graph.VerbIDByName(tenantID, verb)
	if !ok {
		return Result{Decision: NotApplicable}
	}

	resources := e.graph.ResourcesMatching(tenantID, uri)
	if len(resources) == 0 {
		return Result{Decision: NotApplicable}
	}
	resourceIDs := make(map[int]*graph.Resource, len(resources))
	for _, r := range resources {
		resourceIDs[r.ID] = r
	}

	entities := e.principalEntities(tenantID, principalID)
	if len(entities) == 0 {
		return Result{Decision: NotApplicable}
	}

	var traces []RuleTrace
	anyDeny := false
	anyGrant := false

	for _, entity := range entities {
		for _, schemeID := range e.graph.SchemeForEntity(tenantID, entity) {
			for _, ua := range e.graph.AccessesForScheme(tenantID, schemeID) {
				if ua.VerbID != verbID {
					continue
				}
				res, matched := resourceIDs[ua.ResourceID]
				if !matched {
					continue
				}

				literalLen, wildcards := res.Specificity()
				traces = append(traces, RuleTrace{
					ResourceID:       res.ID,
					ResourcePattern:  res.URIPattern,
					VerbID:           verbID,
					Entity:           entity,
					Grant:            ua.Grant,
					Deny:             ua.Deny,
					LiteralPrefixLen: literalLen,
					WildcardCount:    wildcards,
				})

				if ua.Deny {
					anyDeny = true
				}
				if ua.Grant {
					anyGrant = true
				}
			}
		}
	}

	orderTracesBySpecificity(traces)

	decision := NotApplicable
	switch {
	case anyDeny:
		decision = Deny
	case anyGrant:
		decision = Allow
	}

	return Result{Decision: decision, Reasons: traces}
}

// principalEntities resolves E = {user.entity} ∪ {g.entity | g ∈
// GroupsForUser(transitive)} ∪ {r.entity | r ∈ RolesForUser(effective)}.
func (e *Evaluator) principalEntities(tenantID string, principalID int) []graph.EntityRef {
	user, err := e.graph.GetUser(tenantID, principalID)
	if err != nil {
		return nil
	}

	entities := []graph.EntityRef{user.Entity}

	for _, gid := range e.graph.GroupsForUser(tenantID, principalID, graph.Transitive) {
		entities = append(entities, graph.EntityRef{Kind: graph.EntityGroup, ID: gid})
	}
	for _, rid := range e.graph.RolesForUser(tenantID, principalID, graph.RoleEffective) {
		entities = append(entities, graph.EntityRef{Kind: graph.EntityRole, ID: rid})
	}
	return entities
}

// orderTracesBySpecificity sorts the reason chain most-specific first:
// longer literal prefix, then fewer wildcards. This is presentation order
// only (spec's Open Question resolution: specificity never changes the
// Allow/Deny outcome).
func orderTracesBySpecificity(traces []RuleTrace) {
	for i := 1; i < len(traces); i++ {
		for j := i; j > 0 && moreSpecific(traces[j], traces[j-1]); j-- {
			traces[j], traces[j-1] = traces[j-1], traces[j]
		}
	}
}

func moreSpecific(a, b RuleTrace) bool {
	if a.LiteralPrefixLen != b.LiteralPrefixLen {
		return a.LiteralPrefixLen > b.LiteralPrefixLen
	}
	return a.WildcardCount < b.WildcardCount
}
