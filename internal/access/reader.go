package access

import (
	"context"
	"log/slog"

	"streampanel/internal/logging"
	"streampanel/internal/plextv"
)

// ShareReader provides the raw reads the state reader merges.
type ShareReader interface {
	Catalog(ctx context.Context, server plextv.ServerConfig) ([]plextv.LibrarySection, error)
	SharedServers(ctx context.Context, server plextv.ServerConfig) ([]plextv.SharedServer, error)
	SharedServerForUser(ctx context.Context, server plextv.ServerConfig, accountID int64) (*plextv.SharedServer, error)
	HomeUsers(ctx context.Context, server plextv.ServerConfig) ([]plextv.HomeUser, error)
}

// StateReader pulls raw records from both access surfaces and normalizes
// them into one per-user view keyed by folded email.
type StateReader struct {
	client ShareReader
	logger *slog.Logger
}

// NewStateReader constructs a reader over the given client.
func NewStateReader(client ShareReader, logger *slog.Logger) *StateReader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StateReader{
		client: client,
		logger: logger.With(logging.String(logging.FieldComponent, "reader")),
	}
}

// MergedState returns the unified access records for the server together
// with its current catalog. On an email collision between the two sources
// the share-record version wins; the home-user version describes the same
// human and would double-count them.
func (r *StateReader) MergedState(ctx context.Context, server plextv.ServerConfig) (map[string]AccessRecord, []plextv.LibrarySection, error) {
	catalog, err := r.client.Catalog(ctx, server)
	if err != nil {
		return nil, nil, err
	}

	shares, err := r.client.SharedServers(ctx, server)
	if err != nil {
		// The home-user surface can still answer on its own; losing the share
		// listing degrades the view instead of failing it.
		r.logger.Warn("share record listing unavailable", logging.Error(err))
		shares = nil
	}

	merged := make(map[string]AccessRecord, len(shares))
	for _, share := range shares {
		if share.Email == "" || share.Username == "" || share.UserID == 0 {
			continue
		}
		key := fold(share.Email)
		merged[key] = AccessRecord{
			Email:           key,
			Username:        share.Username,
			AccountID:       share.UserID,
			LibraryIDs:      share.SharedSectionIDs(),
			IsPendingInvite: share.Pending(),
			IsActiveFriend:  share.Accepted(),
		}
	}
	r.logger.Info("fetched share records", logging.Int("count", len(merged)))

	homeUsers, err := r.client.HomeUsers(ctx, server)
	if err != nil {
		// A server outside a household answers this with an error; the
		// share records alone are still a complete answer for it.
		r.logger.Warn("home user listing unavailable", logging.Error(err))
		return merged, catalog, nil
	}

	processed := 0
	for _, user := range homeUsers {
		if user.IsAdmin() || user.Email == "" {
			continue
		}
		key := fold(user.Email)
		if _, seen := merged[key]; seen {
			continue
		}

		libraryIDs := r.homeUserLibraries(ctx, server, user, catalog)
		processed++
		if processed%20 == 0 {
			r.logger.Info("processing home users", logging.Int("processed", processed))
		}
		if len(libraryIDs) == 0 {
			continue
		}
		merged[key] = AccessRecord{
			Email:      key,
			Username:   user.DisplayName(),
			AccountID:  user.ID,
			LibraryIDs: libraryIDs,
			IsHomeUser: true,
		}
	}

	return merged, catalog, nil
}

// homeUserLibraries determines a home user's entitlement on this server.
// Access is fail-closed: it exists only when the explicit per-server share
// lookup succeeds. An unrestricted home user whose lookup succeeds with zero
// section entries holds the full current catalog; a failed lookup means no
// access on this server, never full access.
func (r *StateReader) homeUserLibraries(ctx context.Context, server plextv.ServerConfig, user plextv.HomeUser, catalog []plextv.LibrarySection) []string {
	share, err := r.client.SharedServerForUser(ctx, server, user.ID)
	if err != nil {
		r.logger.Debug("home user not shared on this server",
			logging.String("email", user.Email),
			logging.Error(err))
		return nil
	}

	ids := share.SharedSectionIDs()
	if len(ids) > 0 {
		return ids
	}
	if user.IsRestricted() {
		return nil
	}

	full := make([]string, 0, len(catalog))
	for _, section := range catalog {
		full = append(full, section.ID)
	}
	r.logger.Info("unrestricted home user holds full catalog",
		logging.String("email", user.Email),
		logging.Int("libraries", len(full)))
	return full
}
