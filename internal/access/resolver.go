package access

import (
	"context"
	"fmt"
	"log/slog"

	"streampanel/internal/logging"
	"streampanel/internal/plextv"
	"streampanel/internal/services"
)

// AccountDirectory lists active accounts and pending invites.
type AccountDirectory interface {
	Friends(ctx context.Context, server plextv.ServerConfig) ([]plextv.Friend, error)
	PendingInvites(ctx context.Context, server plextv.ServerConfig) ([]plextv.PendingInvite, error)
}

// ResolvedUser is the result of identifier resolution: exactly one of Friend
// or Invite is set.
type ResolvedUser struct {
	Friend *plextv.Friend
	Invite *plextv.PendingInvite
}

// Resolver finds the canonical account for a human-supplied identifier.
// Operators paste emails, usernames, and display titles interchangeably, so
// resolution falls back through all three.
type Resolver struct {
	directory AccountDirectory
	logger    *slog.Logger
}

// NewResolver constructs a resolver over the given account directory.
func NewResolver(directory AccountDirectory, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		directory: directory,
		logger:    logger.With(logging.String(logging.FieldComponent, "resolver")),
	}
}

// Resolve searches active accounts and pending invites for the identifier.
// Matching is case-insensitive with field priority username, email, display
// title; the first match in priority order wins. A miss returns an error
// classified as services.ErrNotFound.
//
// The scan is O(n) over the friends and invite lists, which is fine at the
// directory sizes this tool sees (tens to low hundreds of accounts).
func (r *Resolver) Resolve(ctx context.Context, server plextv.ServerConfig, identifier string) (*ResolvedUser, error) {
	needle := fold(identifier)
	if needle == "" {
		return nil, services.Wrap(services.ErrNotFound, "resolver", "resolve", "empty identifier", nil)
	}

	friends, err := r.directory.Friends(ctx, server)
	if err != nil {
		return nil, err
	}

	fields := []func(plextv.Friend) string{
		func(f plextv.Friend) string { return f.Username },
		func(f plextv.Friend) string { return f.Email },
		func(f plextv.Friend) string { return f.Title },
	}
	for _, field := range fields {
		for i := range friends {
			if fold(field(friends[i])) == needle {
				r.logger.Info("resolved user",
					logging.String("identifier", identifier),
					logging.String("username", friends[i].Username))
				return &ResolvedUser{Friend: &friends[i]}, nil
			}
		}
	}

	invites, err := r.directory.PendingInvites(ctx, server)
	if err != nil {
		return nil, err
	}
	for i := range invites {
		if fold(invites[i].Email) == needle || fold(invites[i].Username) == needle {
			r.logger.Info("resolved pending invite", logging.String("identifier", identifier))
			return &ResolvedUser{Invite: &invites[i]}, nil
		}
	}

	return nil, services.Wrap(services.ErrNotFound, "resolver", "resolve",
		fmt.Sprintf("user %q not found in friends or pending invites", identifier), nil)
}
