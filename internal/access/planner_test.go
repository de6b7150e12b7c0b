package access

import (
	"errors"
	"strings"
	"testing"

	"streampanel/internal/services"
)

func TestPlanMutationInviteForUnknownUser(t *testing.T) {
	desired := DesiredState{UserIdentifier: "new@example.com", LibraryIDs: []string{"1", "2"}}

	plan, err := PlanMutation(desired, nil, testCatalog)
	if err != nil {
		t.Fatalf("PlanMutation returned error: %v", err)
	}
	if plan.Kind != PlanInvite {
		t.Fatalf("expected invite plan, got %d", plan.Kind)
	}
	if len(plan.Sections) != 2 {
		t.Fatalf("expected both sections validated, got %v", plan.Sections)
	}
}

func TestPlanMutationUpdateForExistingUser(t *testing.T) {
	desired := DesiredState{UserIdentifier: "bob@example.com", LibraryIDs: []string{"2"}}
	current := &AccessRecord{Email: "bob@example.com", AccountID: 42, LibraryIDs: []string{"1"}, IsActiveFriend: true}

	plan, err := PlanMutation(desired, current, testCatalog)
	if err != nil {
		t.Fatalf("PlanMutation returned error: %v", err)
	}
	if plan.Kind != PlanUpdate {
		t.Fatalf("expected update plan, got %d", plan.Kind)
	}
	if got := plan.SectionIDs(); len(got) != 1 || got[0] != "2" {
		t.Fatalf("expected section 2, got %v", got)
	}
}

func TestPlanMutationDropsStaleIDsWithWarning(t *testing.T) {
	desired := DesiredState{UserIdentifier: "bob@example.com", LibraryIDs: []string{"1", "99"}}

	plan, err := PlanMutation(desired, nil, testCatalog)
	if err != nil {
		t.Fatalf("PlanMutation returned error: %v", err)
	}
	if got := plan.SectionIDs(); len(got) != 1 || got[0] != "1" {
		t.Fatalf("stale ID must not survive into the write set: %v", got)
	}
	if len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "99") {
		t.Fatalf("expected a warning naming the dropped ID, got %v", plan.Warnings)
	}
}

func TestPlanMutationDeduplicatesRequestedIDs(t *testing.T) {
	desired := DesiredState{UserIdentifier: "bob@example.com", LibraryIDs: []string{"1", "1", "2"}}

	plan, err := PlanMutation(desired, nil, testCatalog)
	if err != nil {
		t.Fatalf("PlanMutation returned error: %v", err)
	}
	if len(plan.Sections) != 2 {
		t.Fatalf("expected duplicates collapsed, got %v", plan.SectionIDs())
	}
}

func TestPlanMutationAllStaleFails(t *testing.T) {
	desired := DesiredState{UserIdentifier: "bob@example.com", LibraryIDs: []string{"98", "99"}}

	_, err := PlanMutation(desired, nil, testCatalog)
	if !errors.Is(err, services.ErrNoValidLibraries) {
		t.Fatalf("expected ErrNoValidLibraries, got %v", err)
	}
}

func TestPlanMutationEmptySetRevokesExistingAccess(t *testing.T) {
	desired := DesiredState{UserIdentifier: "bob@example.com"}
	current := &AccessRecord{Email: "bob@example.com", AccountID: 42, LibraryIDs: []string{"1"}, IsActiveFriend: true}

	plan, err := PlanMutation(desired, current, testCatalog)
	if err != nil {
		t.Fatalf("PlanMutation returned error: %v", err)
	}
	if plan.Kind != PlanRevoke {
		t.Fatalf("expected revoke plan, got %d", plan.Kind)
	}
}

func TestPlanMutationEmptySetNoopWithoutAccess(t *testing.T) {
	desired := DesiredState{UserIdentifier: "bob@example.com"}
	current := &AccessRecord{Email: "bob@example.com", AccountID: 42, IsActiveFriend: true}

	plan, err := PlanMutation(desired, current, testCatalog)
	if err != nil {
		t.Fatalf("PlanMutation returned error: %v", err)
	}
	if plan.Kind != PlanNoop {
		t.Fatalf("revoking a user with no access must be a no-op, got %d", plan.Kind)
	}
	if !strings.Contains(plan.Summary, "nothing to remove") {
		t.Fatalf("unexpected summary: %q", plan.Summary)
	}
}

func TestPlanMutationEmptySetNoopForUnknownUser(t *testing.T) {
	desired := DesiredState{UserIdentifier: "ghost@example.com"}

	plan, err := PlanMutation(desired, nil, testCatalog)
	if err != nil {
		t.Fatalf("PlanMutation returned error: %v", err)
	}
	if plan.Kind != PlanNoop {
		t.Fatalf("revoking an unknown user must be a no-op, got %d", plan.Kind)
	}
	if !strings.Contains(plan.Summary, "not found") {
		t.Fatalf("unexpected summary: %q", plan.Summary)
	}
}
