package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"streampanel/internal/logging"
	"streampanel/internal/plextv"
	"streampanel/internal/services"
)

// ShareWriter provides the write primitives plus the share lookup the revoke
// fallback needs.
type ShareWriter interface {
	InviteFriend(ctx context.Context, server plextv.ServerConfig, email string, sectionIDs []string) error
	UpdateSharedSections(ctx context.Context, server plextv.ServerConfig, accountID int64, sectionIDs []string) error
	SharedServers(ctx context.Context, server plextv.ServerConfig) ([]plextv.SharedServer, error)
	DeleteSharedServer(ctx context.Context, server plextv.ServerConfig, shareID string) error
}

// Mutator executes mutation plans against the remote API, applying the retry
// and fallback policy the upstream's ambiguous answers require.
type Mutator struct {
	client ShareWriter
	logger *slog.Logger
}

// NewMutator constructs a mutator over the given write client.
func NewMutator(client ShareWriter, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Mutator{
		client: client,
		logger: logger.With(logging.String(logging.FieldComponent, "mutator")),
	}
}

const verifyManuallyWarning = "404 error ignored - verify manually if needed"

// reclassifyWriteError reports whether a failed write should be treated as
// success. The upstream applies invite/update/revoke mutations before
// answering, and then frequently answers with a not-found status; the
// mutation has landed by the time the error arrives. Reclassifying any
// not-found-class error can mask a genuine failure, so every reclassified
// outcome carries a warning telling the operator to verify.
func reclassifyWriteError(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}

// Apply executes the plan and reports a structured outcome. It never returns
// an error: every failure mode is folded into the outcome.
func (m *Mutator) Apply(ctx context.Context, server plextv.ServerConfig, desired DesiredState, current *AccessRecord, plan MutationPlan) MutationOutcome {
	switch plan.Kind {
	case PlanNoop:
		return MutationOutcome{
			Success:  true,
			Message:  plan.Summary,
			Server:   server.Name,
			Warnings: plan.Warnings,
		}
	case PlanInvite:
		return m.applyInvite(ctx, server, desired, plan)
	case PlanUpdate:
		return m.applyUpdate(ctx, server, current, plan)
	case PlanRevoke:
		return m.applyRevoke(ctx, server, desired, current, plan)
	default:
		return m.failure(server, plan, fmt.Errorf("unknown plan kind %d", plan.Kind))
	}
}

func (m *Mutator) applyInvite(ctx context.Context, server plextv.ServerConfig, desired DesiredState, plan MutationPlan) MutationOutcome {
	m.logger.Info("inviting user",
		logging.String("user", desired.UserIdentifier),
		logging.Int("sections", len(plan.Sections)))

	err := m.client.InviteFriend(ctx, server, desired.UserIdentifier, plan.SectionIDs())
	if err != nil {
		if services.IsTimeout(err) {
			return m.timeout(server)
		}
		if reclassifyWriteError(err) {
			m.logger.Warn("invite answered not-found, treating as applied", logging.Error(err))
			return m.grantOutcome(server, plan, "Invite sent (404 ignored)", true, verifyManuallyWarning)
		}
		return m.failure(server, plan, err)
	}
	return m.grantOutcome(server, plan, plan.Summary, true)
}

func (m *Mutator) applyUpdate(ctx context.Context, server plextv.ServerConfig, current *AccessRecord, plan MutationPlan) MutationOutcome {
	m.logger.Info("updating library access",
		logging.String("user", current.Email),
		logging.Int("sections", len(plan.Sections)))

	err := m.client.UpdateSharedSections(ctx, server, current.AccountID, plan.SectionIDs())
	if err != nil {
		if services.IsTimeout(err) {
			return m.timeout(server)
		}
		if reclassifyWriteError(err) {
			m.logger.Warn("update answered not-found, treating as applied", logging.Error(err))
			return m.grantOutcome(server, plan, "Library access updated (404 ignored)", false, verifyManuallyWarning)
		}
		return m.failure(server, plan, err)
	}
	return m.grantOutcome(server, plan, plan.Summary, false)
}

// applyRevoke prefers the bulk replace-with-empty-set primitive. That call
// answers not-found for some account states even though a share exists, so
// it falls back to locating the user's share record and deleting it
// directly. When the record cannot be located either, the revoke is reported
// as successful with a warning: the share is most likely already gone, and
// blocking on an upstream inconsistency the tool cannot resolve unilaterally
// helps nobody.
func (m *Mutator) applyRevoke(ctx context.Context, server plextv.ServerConfig, desired DesiredState, current *AccessRecord, plan MutationPlan) MutationOutcome {
	m.logger.Info("removing all library access", logging.String("user", current.Email))

	err := m.client.UpdateSharedSections(ctx, server, current.AccountID, nil)
	if err == nil {
		return MutationOutcome{
			Success:  true,
			Message:  plan.Summary,
			Server:   server.Name,
			Warnings: plan.Warnings,
		}
	}
	if services.IsTimeout(err) {
		return m.timeout(server)
	}
	if !reclassifyWriteError(err) {
		return m.failure(server, plan, err)
	}

	m.logger.Warn("bulk revoke answered not-found, deleting share record directly", logging.Error(err))
	warnings := plan.Warnings

	shares, lookupErr := m.client.SharedServers(ctx, server)
	if lookupErr != nil {
		if services.IsTimeout(lookupErr) {
			return m.timeout(server)
		}
		m.logger.Warn("share record lookup failed during revoke fallback", logging.Error(lookupErr))
		return MutationOutcome{
			Success:  true,
			Message:  "Library access removed (404 ignored)",
			Server:   server.Name,
			Warnings: append(warnings, verifyManuallyWarning),
		}
	}

	shareID := findShareRecordID(shares, current)
	if shareID == "" {
		m.logger.Warn("share record not found during revoke fallback", logging.String("user", current.Email))
		return MutationOutcome{
			Success:  true,
			Message:  "Library access removed (404 ignored)",
			Server:   server.Name,
			Warnings: append(warnings, "share record not located - verify manually if needed"),
		}
	}

	if deleteErr := m.client.DeleteSharedServer(ctx, server, shareID); deleteErr != nil {
		if services.IsTimeout(deleteErr) {
			return m.timeout(server)
		}
		if reclassifyWriteError(deleteErr) {
			return MutationOutcome{
				Success:  true,
				Message:  "Library access removed (404 ignored)",
				Server:   server.Name,
				Warnings: append(warnings, verifyManuallyWarning),
			}
		}
		return m.failure(server, plan, deleteErr)
	}

	m.logger.Info("deleted share record", logging.String("share_id", shareID))
	return MutationOutcome{
		Success:  true,
		Message:  plan.Summary,
		Server:   server.Name,
		Warnings: warnings,
	}
}

func findShareRecordID(shares []plextv.SharedServer, current *AccessRecord) string {
	for _, share := range shares {
		if fold(share.Email) == current.Email || fold(share.Username) == fold(current.Username) {
			return share.ID
		}
	}
	return ""
}

func (m *Mutator) grantOutcome(server plextv.ServerConfig, plan MutationPlan, message string, inviteSent bool, extraWarnings ...string) MutationOutcome {
	return MutationOutcome{
		Success:         true,
		Message:         message,
		Server:          server.Name,
		LibrariesShared: len(plan.Sections),
		LibraryDetails:  plan.Details(),
		InviteSent:      inviteSent,
		Warnings:        append(plan.Warnings, extraWarnings...),
	}
}

func (m *Mutator) timeout(server plextv.ServerConfig) MutationOutcome {
	return MutationOutcome{
		Success: false,
		Message: "Operation timed out",
		Server:  server.Name,
	}
}

func (m *Mutator) failure(server plextv.ServerConfig, plan MutationPlan, err error) MutationOutcome {
	m.logger.Error("mutation failed", logging.Error(err))
	return MutationOutcome{
		Success:  false,
		Message:  err.Error(),
		Server:   server.Name,
		Warnings: plan.Warnings,
	}
}
