// Package admin implements the AdminAPI (C7): the single entry point for
// every graph mutation, responsible for emitting exactly one audit event
// per successful write and leaving the graph untouched on failure.
package admin

import (
	"context"
	"fmt"

	"github.com/warden-acs/warden/pkg/audit"
	"github.com/warden-acs/warden/pkg/graph"
)

// API wraps a *graph.Graph and an audit.Sink. It depends on graph and
// audit, never the reverse, keeping the graph free of audit/evaluator
// knowledge.
type API struct {
	graph *graph.Graph
	sink  audit.Sink
}

// New creates an admin API over g, recording mutations to sink.
func New(g *graph.Graph, sink audit.Sink) *API {
	return &API{graph: g, sink: sink}
}

// emit records one audit event for a successful mutation. Emission errors
// are not propagated to the caller: the mutation already committed, and
// the audit sink is fire-and-forget by contract (spec §4.5).
func (a *API) emit(ctx context.Context, tenantID, actor string, category audit.Category, entityType, entityID string, details map[string]any) {
	event := audit.NewEvent(timeNow(), tenantID, actor, category, entityType, entityID, details)
	_ = a.sink.Record(ctx, event)
}

// CreateUser creates a user and audits the mutation.
func (a *API) CreateUser(ctx context.Context, tenantID, actor, email string) (*graph.User, error) {
	u, err := a.graph.CreateUser(tenantID, email)
	if err != nil {
		return nil, err
	}
	a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "user", idString(u.ID), map[string]any{"email": email})
	return u, nil
}

// CreateGroup creates a group and audits the mutation.
func (a *API) CreateGroup(ctx context.Context, tenantID, actor, name string) (*graph.Group, error) {
	g, err := a.graph.CreateGroup(tenantID, name)
	if err != nil {
		return nil, err
	}
	a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "group", idString(g.ID), map[string]any{"name": name})
	return g, nil
}

// CreateRole creates a role and audits the mutation.
func (a *API) CreateRole(ctx context.Context, tenantID, actor, name string) (*graph.Role, error) {
	r, err := a.graph.CreateRole(tenantID, name)
	if err != nil {
		return nil, err
	}
	a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "role", idString(r.ID), map[string]any{"name": name})
	return r, nil
}

// CreateResource creates a resource and audits the mutation.
func (a *API) CreateResource(ctx context.Context, tenantID, actor, uriPattern string) (*graph.Resource, error) {
	r, err := a.graph.CreateResource(tenantID, uriPattern)
	if err != nil {
		return nil, err
	}
	a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "resource", idString(r.ID), map[string]any{"uriPattern": uriPattern})
	return r, nil
}

// CreateVerb registers a verb and audits the mutation. No event is
// emitted when the verb already existed, since nothing changed.
func (a *API) CreateVerb(ctx context.Context, tenantID, actor, name string) (*graph.Verb, error) {
	before := a.graph.Version(tenantID)
	v, err := a.graph.CreateVerb(tenantID, name)
	if err != nil {
		return nil, err
	}
	if a.graph.Version(tenantID) != before {
		a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "verb", idString(v.ID), map[string]any{"name": name})
	}
	return v, nil
}

// AddUserToGroup adds a membership and audits the mutation. No event is
// emitted for the idempotent no-op case (membership already existed).
func (a *API) AddUserToGroup(ctx context.Context, tenantID, actor string, userID, groupID int) error {
	before := a.graph.Version(tenantID)
	if err := a.graph.AddUserToGroup(tenantID, userID, groupID); err != nil {
		return err
	}
	if a.graph.Version(tenantID) != before {
		a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "membership", fmt.Sprintf("%d:%d", userID, groupID),
			map[string]any{"op": "add", "user": userID, "group": groupID})
	}
	return nil
}

// RemoveUserFromGroup removes a membership and audits the mutation.
func (a *API) RemoveUserFromGroup(ctx context.Context, tenantID, actor string, userID, groupID int) error {
	if err := a.graph.RemoveUserFromGroup(tenantID, userID, groupID); err != nil {
		return err
	}
	a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "membership", fmt.Sprintf("%d:%d", userID, groupID),
		map[string]any{"op": "remove", "user": userID, "group": groupID})
	return nil
}

// LinkGroups links parentID -> childID and audits the mutation.
func (a *API) LinkGroups(ctx context.Context, tenantID, actor string, parentID, childID int) error {
	before := a.graph.Version(tenantID)
	if err := a.graph.LinkGroups(tenantID, parentID, childID); err != nil {
		return err
	}
	if a.graph.Version(tenantID) != before {
		a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "group-hierarchy", fmt.Sprintf("%d:%d", parentID, childID),
			map[string]any{"op": "link", "parent": parentID, "child": childID})
	}
	return nil
}

// UnlinkGroups removes a parent/child edge and audits the mutation.
func (a *API) UnlinkGroups(ctx context.Context, tenantID, actor string, parentID, childID int) error {
	if err := a.graph.UnlinkGroups(tenantID, parentID, childID); err != nil {
		return err
	}
	a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "group-hierarchy", fmt.Sprintf("%d:%d", parentID, childID),
		map[string]any{"op": "unlink", "parent": parentID, "child": childID})
	return nil
}

// AssignRoleToUser assigns role and audits the mutation.
func (a *API) AssignRoleToUser(ctx context.Context, tenantID, actor string, userID, roleID int) error {
	before := a.graph.Version(tenantID)
	if err := a.graph.AssignRoleToUser(tenantID, userID, roleID); err != nil {
		return err
	}
	if a.graph.Version(tenantID) != before {
		a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "user-role", fmt.Sprintf("%d:%d", userID, roleID),
			map[string]any{"op": "assign", "user": userID, "role": roleID})
	}
	return nil
}

// RemoveRoleFromUser revokes role and audits the mutation.
func (a *API) RemoveRoleFromUser(ctx context.Context, tenantID, actor string, userID, roleID int) error {
	if err := a.graph.RemoveRoleFromUser(tenantID, userID, roleID); err != nil {
		return err
	}
	a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "user-role", fmt.Sprintf("%d:%d", userID, roleID),
		map[string]any{"op": "revoke", "user": userID, "role": roleID})
	return nil
}

// AssignRoleToGroup assigns role to every member of group and audits the
// mutation.
func (a *API) AssignRoleToGroup(ctx context.Context, tenantID, actor string, groupID, roleID int) error {
	before := a.graph.Version(tenantID)
	if err := a.graph.AssignRoleToGroup(tenantID, groupID, roleID); err != nil {
		return err
	}
	if a.graph.Version(tenantID) != before {
		a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "group-role", fmt.Sprintf("%d:%d", groupID, roleID),
			map[string]any{"op": "assign", "group": groupID, "role": roleID})
	}
	return nil
}

// RemoveRoleFromGroup revokes role from group and audits the mutation.
func (a *API) RemoveRoleFromGroup(ctx context.Context, tenantID, actor string, groupID, roleID int) error {
	if err := a.graph.RemoveRoleFromGroup(tenantID, groupID, roleID); err != nil {
		return err
	}
	a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "group-role", fmt.Sprintf("%d:%d", groupID, roleID),
		map[string]any{"op": "revoke", "group": groupID, "role": roleID})
	return nil
}

// SetAccess upserts a grant/deny rule and audits the mutation.
func (a *API) SetAccess(ctx context.Context, tenantID, actor string, entity graph.EntityRef, resourceID, verbID int, grant, deny bool) (*graph.UriAccess, error) {
	ua, err := a.graph.SetAccess(tenantID, entity, resourceID, verbID, grant, deny)
	if err != nil {
		return nil, err
	}
	a.emit(ctx, tenantID, actor, audit.CategoryAdminMutation, "uri-access", idString(ua.ID),
		map[string]any{"entityKind": entity.Kind.String(), "entityId": entity.ID, "resource": resourceID, "verb": verbID, "grant": grant, "deny": deny})
	return ua, nil
}

func idString(id int) string {
	return fmt.Sprintf("%d", id)
}
