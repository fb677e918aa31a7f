package admin

import (
	"context"
	"testing"

	"github.com/warden-acs/warden/pkg/audit"
	"github.com/warden-acs/warden/pkg/graph"
)

func setup() (*API, *audit.MemorySink) {
	sink := audit.NewMemorySink(100)
	return New(graph.New(), sink), sink
}

func TestAdminAPI_CreateUser_EmitsOneAuditEvent(t *testing.T) {
	api, sink := setup()
	ctx := context.Background()

	u, err := api.CreateUser(ctx, "t1", "root", "alice@example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	events := sink.ForTenant("t1")
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 audit event, got %d", len(events))
	}
	if events[0].Category != audit.CategoryAdminMutation {
		t.Fatalf("expected admin-mutation category, got %v", events[0].Category)
	}
	if events[0].EntityID != idString(u.ID) {
		t.Fatalf("expected entity id %q, got %q", idString(u.ID), events[0].EntityID)
	}
}

func TestAdminAPI_FailedMutationEmitsNoEvent(t *testing.T) {
	api, sink := setup()
	ctx := context.Background()

	if _, err := api.CreateUser(ctx, "t1", "root", "alice@example.com"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := api.CreateUser(ctx, "t1", "root", "alice@example.com"); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}

	events := sink.ForTenant("t1")
	if len(events) != 1 {
		t.Fatalf("expected audit events to stay at 1 after the failed mutation, got %d", len(events))
	}
}

func TestAdminAPI_IdempotentMembershipEmitsNoSecondEvent(t *testing.T) {
	api, sink := setup()
	ctx := context.Background()

	u, _ := api.CreateUser(ctx, "t1", "root", "alice@example.com")
	g, _ := api.CreateGroup(ctx, "t1", "root", "engineering")

	if err := api.AddUserToGroup(ctx, "t1", "root", u.ID, g.ID); err != nil {
		t.Fatalf("add membership: %v", err)
	}
	before := len(sink.ForTenant("t1"))

	if err := api.AddUserToGroup(ctx, "t1", "root", u.ID, g.ID); err != nil {
		t.Fatalf("idempotent add membership: %v", err)
	}
	after := len(sink.ForTenant("t1"))

	if after != before {
		t.Fatalf("expected no new audit event for idempotent no-op, before=%d after=%d", before, after)
	}
}

func TestAdminAPI_LinkGroupsRejectsCycleAndEmitsNoEvent(t *testing.T) {
	api, sink := setup()
	ctx := context.Background()

	a, _ := api.CreateGroup(ctx, "t1", "root", "a")
	b, _ := api.CreateGroup(ctx, "t1", "root", "b")

	if err := api.LinkGroups(ctx, "t1", "root", a.ID, b.ID); err != nil {
		t.Fatalf("link a->b: %v", err)
	}
	before := len(sink.ForTenant("t1"))

	if err := api.LinkGroups(ctx, "t1", "root", b.ID, a.ID); err == nil {
		t.Fatal("expected cycle to be rejected")
	}

	after := len(sink.ForTenant("t1"))
	if after != before {
		t.Fatalf("expected no audit event for rejected cycle, before=%d after=%d", before, after)
	}
}

func TestAdminAPI_SetAccessEmitsEvent(t *testing.T) {
	api, sink := setup()
	ctx := context.Background()

	u, _ := api.CreateUser(ctx, "t1", "root", "alice@example.com")
	r, _ := api.CreateResource(ctx, "t1", "root", "/docs/*")
	v, _ := api.CreateVerb(ctx, "t1", "root", "GET")

	if _, err := api.SetAccess(ctx, "t1", "root", u.Entity, r.ID, v.ID, true, false); err != nil {
		t.Fatalf("set access: %v", err)
	}

	events := sink.ForTenant("t1")
	last := events[len(events)-1]
	if last.EntityType != "uri-access" {
		t.Fatalf("expected last event entity type uri-access, got %q", last.EntityType)
	}
}
