package access

import (
	"fmt"

	"streampanel/internal/plextv"
	"streampanel/internal/services"
)

// PlanKind enumerates the mutations a reconciliation can require.
type PlanKind int

const (
	// PlanNoop means current state already satisfies the desired state.
	PlanNoop PlanKind = iota
	// PlanInvite sends a new share invitation carrying the section set.
	PlanInvite
	// PlanUpdate replaces the section set of an existing share in full.
	PlanUpdate
	// PlanRevoke removes every section the user holds on the server.
	PlanRevoke
)

// MutationPlan is the computed step from current to desired state.
type MutationPlan struct {
	Kind     PlanKind
	Sections []plextv.LibrarySection
	Warnings []string
	Summary  string
}

// PlanMutation decides which mutation moves the user to the desired state.
// Requested IDs missing from the catalog are dropped with a warning each;
// stale IDs must never survive into a write. When nothing survives
// validation the plan fails with services.ErrNoValidLibraries.
func PlanMutation(desired DesiredState, current *AccessRecord, catalog []plextv.LibrarySection) (MutationPlan, error) {
	if len(desired.LibraryIDs) == 0 {
		switch {
		case current == nil:
			return MutationPlan{
				Kind:    PlanNoop,
				Summary: fmt.Sprintf("User %s not found - no action needed", desired.UserIdentifier),
			}, nil
		case !current.HasAccess():
			return MutationPlan{
				Kind:    PlanNoop,
				Summary: "User has no access to this server - nothing to remove",
			}, nil
		default:
			return MutationPlan{
				Kind:    PlanRevoke,
				Summary: fmt.Sprintf("Removed all library access for %s", desired.UserIdentifier),
			}, nil
		}
	}

	byID := make(map[string]plextv.LibrarySection, len(catalog))
	for _, section := range catalog {
		byID[section.ID] = section
	}

	var plan MutationPlan
	seen := make(map[string]bool, len(desired.LibraryIDs))
	for _, id := range desired.LibraryIDs {
		section, ok := byID[id]
		if !ok {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("library ID %s not found on server", id))
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		plan.Sections = append(plan.Sections, section)
	}

	if len(plan.Sections) == 0 {
		return plan, services.Wrap(services.ErrNoValidLibraries, "planner", "validate sections",
			"no valid library IDs provided", nil)
	}

	if current == nil {
		plan.Kind = PlanInvite
		plan.Summary = fmt.Sprintf("Invited %s to server", desired.UserIdentifier)
	} else {
		plan.Kind = PlanUpdate
		plan.Summary = fmt.Sprintf("Updated library access for %s", desired.UserIdentifier)
	}
	return plan, nil
}

// SectionIDs returns the validated catalog keys the plan will write.
func (p MutationPlan) SectionIDs() []string {
	ids := make([]string, 0, len(p.Sections))
	for _, section := range p.Sections {
		ids = append(ids, section.ID)
	}
	return ids
}

// Details returns the validated sections in outcome form.
func (p MutationPlan) Details() []SectionDetail {
	details := make([]SectionDetail, 0, len(p.Sections))
	for _, section := range p.Sections {
		details = append(details, SectionDetail{ID: section.ID, Name: section.Title})
	}
	return details
}
