package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"streampanel/internal/logging"
	"streampanel/internal/plextv"
	"streampanel/internal/services"
)

// Client is the full remote surface the operations consume. *plextv.Client
// satisfies it.
type Client interface {
	AccountDirectory
	ShareReader
	ShareWriter
	RemoveFriend(ctx context.Context, server plextv.ServerConfig, accountID int64) error
	CancelInvite(ctx context.Context, server plextv.ServerConfig, inviteID string) error
}

// AuditRecorder receives every mutation outcome for the local audit log.
// Recording is best-effort; it never affects the outcome.
type AuditRecorder interface {
	RecordMutation(ctx context.Context, server plextv.ServerConfig, operation, user string, outcome MutationOutcome)
}

// Budgets carries the per-operation deadline budgets.
type Budgets struct {
	Mutate time.Duration
	Verify time.Duration
}

// DefaultBudgets mirrors the config defaults for callers that assemble a
// Service directly.
func DefaultBudgets() Budgets {
	return Budgets{Mutate: 60 * time.Second, Verify: 15 * time.Second}
}

// Service bundles the resolver, reader, planner, and mutator into the
// public operations. Each invocation handles one server and one user scope;
// nothing persists between calls.
type Service struct {
	client   Client
	resolver *Resolver
	reader   *StateReader
	mutator  *Mutator
	budgets  Budgets
	audit    AuditRecorder
	logger   *slog.Logger
}

// NewService constructs the operations service. audit may be nil.
func NewService(client Client, budgets Budgets, audit AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if budgets.Mutate <= 0 || budgets.Verify <= 0 {
		budgets = DefaultBudgets()
	}
	return &Service{
		client:   client,
		resolver: NewResolver(client, logger),
		reader:   NewStateReader(client, logger),
		mutator:  NewMutator(client, logger),
		budgets:  budgets,
		audit:    audit,
		logger:   logger.With(logging.String(logging.FieldComponent, "access")),
	}
}

// ShareLibraries reconciles the user's library set on the server toward the
// desired IDs. An empty set revokes all access. The outcome is always
// structured; no error escapes.
func (s *Service) ShareLibraries(ctx context.Context, server plextv.ServerConfig, identifier string, libraryIDs []string) MutationOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.budgets.Mutate)
	defer cancel()
	logger := logging.WithContext(ctx, s.logger)

	desired := DesiredState{UserIdentifier: identifier, LibraryIDs: libraryIDs}

	catalog, err := s.client.Catalog(ctx, server)
	if err != nil {
		return s.record(ctx, server, "share_libraries", identifier, s.readFailure(server, err))
	}
	logger.Info("loaded catalog",
		logging.Int("available", len(catalog)),
		logging.Int("requested", len(libraryIDs)))

	current, err := s.currentRecord(ctx, server, identifier)
	if err != nil {
		return s.record(ctx, server, "share_libraries", identifier, s.readFailure(server, err))
	}

	plan, err := PlanMutation(desired, current, catalog)
	if err != nil {
		outcome := MutationOutcome{
			Success:  false,
			Message:  "No valid library IDs provided",
			Server:   server.Name,
			Warnings: plan.Warnings,
		}
		if !errors.Is(err, services.ErrNoValidLibraries) {
			outcome.Message = err.Error()
		}
		return s.record(ctx, server, "share_libraries", identifier, outcome)
	}
	for _, warning := range plan.Warnings {
		logger.Warn("dropped requested library", logging.String("reason", warning))
	}

	outcome := s.mutator.Apply(ctx, server, desired, current, plan)
	return s.record(ctx, server, "share_libraries", identifier, outcome)
}

// currentRecord builds the user's current AccessRecord from the share
// records, falling back to the account directory for friends who hold no
// share on this server. Absence is reported as (nil, nil).
func (s *Service) currentRecord(ctx context.Context, server plextv.ServerConfig, identifier string) (*AccessRecord, error) {
	needle := fold(identifier)

	shares, err := s.client.SharedServers(ctx, server)
	if err != nil {
		return nil, err
	}
	for _, share := range shares {
		if fold(share.Email) != needle && fold(share.Username) != needle {
			continue
		}
		return &AccessRecord{
			Email:           fold(share.Email),
			Username:        share.Username,
			AccountID:       share.UserID,
			LibraryIDs:      share.SharedSectionIDs(),
			IsPendingInvite: share.Pending(),
			IsActiveFriend:  share.Accepted(),
		}, nil
	}

	resolved, err := s.resolver.Resolve(ctx, server, identifier)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if resolved.Friend != nil {
		record := &AccessRecord{
			Email:          fold(resolved.Friend.Email),
			Username:       resolved.Friend.Username,
			AccountID:      resolved.Friend.ID,
			IsActiveFriend: true,
		}
		// The share listing matches on email and username only, so a friend
		// resolved by display title still needs the per-user lookup to learn
		// which sections they hold. A not-found answer means no share here.
		share, shareErr := s.client.SharedServerForUser(ctx, server, resolved.Friend.ID)
		if shareErr != nil {
			if !errors.Is(shareErr, services.ErrNotFound) {
				return nil, shareErr
			}
			return record, nil
		}
		record.LibraryIDs = share.SharedSectionIDs()
		return record, nil
	}
	return &AccessRecord{
		Email:           fold(resolved.Invite.Email),
		Username:        resolved.Invite.Username,
		IsPendingInvite: true,
	}, nil
}

// UserInfo describes a user's share status on one server.
type UserInfo struct {
	Email           string `json:"email"`
	Exists          bool   `json:"exists"`
	PendingInvite   bool   `json:"pending_invite"`
	Username        string `json:"username,omitempty"`
	UserID          string `json:"user_id,omitempty"`
	HasServerAccess bool   `json:"has_server_access"`
}

// CheckResult is the structured answer of a verification-only check.
type CheckResult struct {
	Success  bool      `json:"success"`
	Server   string    `json:"server"`
	ServerID string    `json:"server_id"`
	Message  string    `json:"message,omitempty"`
	UserInfo *UserInfo `json:"user_info,omitempty"`
}

// CheckUser verifies whether the identifier maps to an existing account or a
// pending invite, and whether that account holds access to this server. It
// runs under the shorter verify budget since it only reads.
func (s *Service) CheckUser(ctx context.Context, server plextv.ServerConfig, identifier string) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.budgets.Verify)
	defer cancel()
	logger := logging.WithContext(ctx, s.logger)

	info := &UserInfo{Email: identifier}
	resolved, err := s.resolver.Resolve(ctx, server, identifier)
	switch {
	case err == nil && resolved.Friend != nil:
		info.Exists = true
		info.Username = resolved.Friend.Username
		info.UserID = fmt.Sprintf("%d", resolved.Friend.ID)
		if _, shareErr := s.client.SharedServerForUser(ctx, server, resolved.Friend.ID); shareErr == nil {
			info.HasServerAccess = true
		} else if services.IsTimeout(shareErr) {
			return s.checkFailure(server, shareErr)
		}
	case err == nil && resolved.Invite != nil:
		info.PendingInvite = true
		info.Username = resolved.Invite.Username
	case errors.Is(err, services.ErrNotFound):
		logger.Info("user not found", logging.String("identifier", identifier))
	default:
		return s.checkFailure(server, err)
	}

	return CheckResult{
		Success:  true,
		Server:   server.Name,
		ServerID: server.ServerID,
		UserInfo: info,
	}
}

// RemoveUser revokes the user's access to the account entirely, cancelling a
// pending invite when no active friendship exists. An identifier that
// resolves to nothing is a success: there is nothing to remove.
func (s *Service) RemoveUser(ctx context.Context, server plextv.ServerConfig, identifier string) MutationOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.budgets.Mutate)
	defer cancel()
	logger := logging.WithContext(ctx, s.logger)

	resolved, err := s.resolver.Resolve(ctx, server, identifier)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return s.record(ctx, server, "remove_user", identifier, MutationOutcome{
				Success: true,
				Message: fmt.Sprintf("User %s not found on server (already removed or never invited)", identifier),
				Server:  server.Name,
			})
		}
		return s.record(ctx, server, "remove_user", identifier, s.readFailure(server, err))
	}

	if resolved.Friend != nil {
		logger.Info("removing friend",
			logging.String("username", resolved.Friend.Username),
			logging.Int64("account_id", resolved.Friend.ID))
		if err := s.client.RemoveFriend(ctx, server, resolved.Friend.ID); err != nil {
			outcome := s.classifyWriteFailure(server, err, fmt.Sprintf("Successfully removed %s (404 ignored)", identifier))
			return s.record(ctx, server, "remove_user", identifier, outcome)
		}
		return s.record(ctx, server, "remove_user", identifier, MutationOutcome{
			Success: true,
			Message: fmt.Sprintf("Successfully removed %s", identifier),
			Server:  server.Name,
		})
	}

	logger.Info("canceling pending invite", logging.String("identifier", identifier))
	if err := s.client.CancelInvite(ctx, server, resolved.Invite.ID); err != nil {
		outcome := s.classifyWriteFailure(server, err, fmt.Sprintf("Canceled pending invite for %s (404 ignored)", identifier))
		return s.record(ctx, server, "remove_user", identifier, outcome)
	}
	return s.record(ctx, server, "remove_user", identifier, MutationOutcome{
		Success: true,
		Message: fmt.Sprintf("Canceled pending invite for %s", identifier),
		Server:  server.Name,
	})
}

// AccessReport serializes the merged per-user state of one server.
type AccessReport struct {
	Success        bool           `json:"success"`
	Server         string         `json:"server"`
	ServerID       string         `json:"server_id"`
	Message        string         `json:"message,omitempty"`
	Users          []AccessRecord `json:"users"`
	ActiveCount    int            `json:"active_count"`
	PendingCount   int            `json:"pending_count"`
	HomeUsersCount int            `json:"home_users_count"`
}

// UsersWithAccess returns every user holding library access on the server,
// merged across both access surfaces.
func (s *Service) UsersWithAccess(ctx context.Context, server plextv.ServerConfig) AccessReport {
	ctx, cancel := context.WithTimeout(ctx, s.budgets.Mutate)
	defer cancel()

	merged, _, err := s.reader.MergedState(ctx, server)
	if err != nil {
		message := err.Error()
		if services.IsTimeout(err) {
			message = "Operation timed out"
		}
		return AccessReport{Success: false, Server: server.Name, ServerID: server.ServerID, Message: message, Users: []AccessRecord{}}
	}

	report := AccessReport{
		Success:  true,
		Server:   server.Name,
		ServerID: server.ServerID,
		Users:    make([]AccessRecord, 0, len(merged)),
	}
	for _, record := range merged {
		report.Users = append(report.Users, record)
		switch {
		case record.IsPendingInvite:
			report.PendingCount++
		default:
			report.ActiveCount++
		}
		if record.IsHomeUser {
			report.HomeUsersCount++
		}
	}
	sort.Slice(report.Users, func(i, j int) bool { return report.Users[i].Email < report.Users[j].Email })
	return report
}

func (s *Service) classifyWriteFailure(server plextv.ServerConfig, err error, softMessage string) MutationOutcome {
	if services.IsTimeout(err) {
		return MutationOutcome{Success: false, Message: "Operation timed out", Server: server.Name}
	}
	if reclassifyWriteError(err) {
		return MutationOutcome{
			Success:  true,
			Message:  softMessage,
			Server:   server.Name,
			Warnings: []string{verifyManuallyWarning},
		}
	}
	return MutationOutcome{Success: false, Message: err.Error(), Server: server.Name}
}

func (s *Service) readFailure(server plextv.ServerConfig, err error) MutationOutcome {
	message := err.Error()
	if services.IsTimeout(err) {
		message = "Operation timed out"
	}
	return MutationOutcome{Success: false, Message: message, Server: server.Name}
}

func (s *Service) checkFailure(server plextv.ServerConfig, err error) CheckResult {
	message := err.Error()
	if services.IsTimeout(err) {
		message = "Verification timed out"
	}
	return CheckResult{Success: false, Server: server.Name, ServerID: server.ServerID, Message: message}
}

func (s *Service) record(ctx context.Context, server plextv.ServerConfig, operation, user string, outcome MutationOutcome) MutationOutcome {
	if s.audit != nil {
		s.audit.RecordMutation(ctx, server, operation, user, outcome)
	}
	return outcome
}
