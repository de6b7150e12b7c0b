package activity

import (
	"context"
	"log/slog"
	"time"

	"streampanel/internal/logging"
	"streampanel/internal/plextv"
	"streampanel/internal/services"
)

// HistorySource provides the share listing and per-account watch history the
// collector consumes. *plextv.Client satisfies it.
type HistorySource interface {
	SharedServers(ctx context.Context, server plextv.ServerConfig) ([]plextv.SharedServer, error)
	LastWatched(ctx context.Context, server plextv.ServerConfig, accountID int64) (time.Time, bool, error)
}

// UserActivity is one user's last-seen summary. The timestamp fields are nil
// when the account has no watch history or the history fetch failed.
type UserActivity struct {
	Email                 string  `json:"email"`
	Username              string  `json:"username"`
	UserID                string  `json:"user_id"`
	LastSeenAt            *string `json:"last_seen_at"`
	DaysSinceLastActivity *int    `json:"days_since_last_activity"`
	IsPendingInvite       bool    `json:"is_pending_invite"`
	IsActiveFriend        bool    `json:"is_active_friend"`
}

// Report is the structured answer of one activity collection.
type Report struct {
	Success        bool           `json:"success"`
	Server         string         `json:"server"`
	ServerID       string         `json:"server_id"`
	Message        string         `json:"message,omitempty"`
	Users          []UserActivity `json:"users"`
	PendingInvites []UserActivity `json:"pending_invites"`
	TotalUsers     int            `json:"total_users"`
	TotalPending   int            `json:"total_pending"`
}

const historyAttempts = 3

// Collector walks a server's share records and annotates each accepted user
// with their most recent watch timestamp.
type Collector struct {
	source HistorySource
	budget time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewCollector constructs a collector with the given overall deadline budget.
func NewCollector(source HistorySource, budget time.Duration, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = logging.NewNop()
	}
	if budget <= 0 {
		budget = 90 * time.Second
	}
	return &Collector{
		source: source,
		budget: budget,
		logger: logger.With(logging.String(logging.FieldComponent, "activity")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Collect reports every accepted user with their last-seen timestamp plus the
// pending invites, which carry no history. A per-user history failure degrades
// that user to nil timestamps rather than failing the whole report.
func (c *Collector) Collect(ctx context.Context, server plextv.ServerConfig) Report {
	ctx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()
	logger := logging.WithContext(ctx, c.logger)

	shares, err := c.source.SharedServers(ctx, server)
	if err != nil {
		message := err.Error()
		if services.IsTimeout(err) {
			message = "Operation timed out"
		}
		return Report{Success: false, Server: server.Name, ServerID: server.ServerID, Message: message,
			Users: []UserActivity{}, PendingInvites: []UserActivity{}}
	}

	report := Report{
		Success:        true,
		Server:         server.Name,
		ServerID:       server.ServerID,
		Users:          []UserActivity{},
		PendingInvites: []UserActivity{},
	}

	var accepted []plextv.SharedServer
	for _, share := range shares {
		if share.Email == "" || share.Username == "" || share.UserID == 0 {
			continue
		}
		switch {
		case share.Accepted():
			accepted = append(accepted, share)
		case share.Pending():
			report.PendingInvites = append(report.PendingInvites, UserActivity{
				Email:           fold(share.Email),
				Username:        share.Username,
				UserID:          formatID(share.UserID),
				IsPendingInvite: true,
			})
		}
	}
	logger.Info("fetched share records",
		logging.Int("active", len(accepted)),
		logging.Int("pending", len(report.PendingInvites)))

	for i, share := range accepted {
		entry := UserActivity{
			Email:          fold(share.Email),
			Username:       share.Username,
			UserID:         formatID(share.UserID),
			IsActiveFriend: true,
		}

		if lastSeen, ok := c.lastSeen(ctx, server, share.UserID); ok {
			stamp := lastSeen.Format(time.RFC3339)
			days := int(c.now().Sub(lastSeen).Hours() / 24)
			entry.LastSeenAt = &stamp
			entry.DaysSinceLastActivity = &days
		}

		report.Users = append(report.Users, entry)
		if (i+1)%20 == 0 {
			logger.Info("processing users",
				logging.Int("processed", i+1),
				logging.Int("total", len(accepted)))
		}
	}

	report.TotalUsers = len(report.Users)
	report.TotalPending = len(report.PendingInvites)
	return report
}

// lastSeen fetches the account's most recent watch timestamp, retrying
// transient failures. Timeouts and cancellation are not retried; the budget
// is already spent.
func (c *Collector) lastSeen(ctx context.Context, server plextv.ServerConfig, accountID int64) (time.Time, bool) {
	var lastErr error
	for attempt := 1; attempt <= historyAttempts; attempt++ {
		lastSeen, found, err := c.source.LastWatched(ctx, server, accountID)
		if err == nil {
			return lastSeen, found
		}
		lastErr = err
		if services.IsTimeout(err) || ctx.Err() != nil {
			break
		}
	}
	c.logger.Warn("watch history unavailable",
		logging.Int64("account_id", accountID),
		logging.Error(lastErr))
	return time.Time{}, false
}
