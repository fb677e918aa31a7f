// Package evaluator answers "may principal P perform verb V on resource
// URI U?" by walking the permission graph and combining every applicable
// grant/deny fact with strict deny-wins precedence.
package evaluator

import "github.com/warden-acs/warden/pkg/graph"

// Decision is the outcome of an evaluation.
type Decision int

const (
	// NotApplicable means no rule matched at all. Callers treat this as
	// Deny, but the distinction is preserved in the reason chain for
	// audit purposes (spec §4.4).
	NotApplicable Decision = iota
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "not_applicable"
	}
}

// RuleTrace records one examined UriAccess row for the audit reason chain.
// Specificity is an annotation only; it never affects the Allow/Deny
// combination (spec's Open Question: strict deny-wins, no priority tiers).
type RuleTrace struct {
	ResourceID       int
	ResourcePattern  string
	VerbID           int
	Entity           graph.EntityRef
	Grant            bool
	Deny             bool
	LiteralPrefixLen int
	WildcardCount    int
}

// Result is the full outcome of Evaluate: the decision plus every rule
// examined while reaching it, ordered most-specific first.
type Result struct {
	Decision Decision
	Reasons  []RuleTrace
}
