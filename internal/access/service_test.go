package access

import (
	"context"
	"testing"
	"time"

	"streampanel/internal/plextv"
)

// fakeClient scripts the full remote surface the service consumes.
type fakeClient struct {
	fakeDirectory
	fakeShareReader
	fakeShareWriter

	removedFriends   []int64
	canceledInvites  []string
	removeFriendErr  error
	cancelInviteErr  error
	blockUntilCancel bool
}

func (f *fakeClient) Friends(ctx context.Context, server plextv.ServerConfig) ([]plextv.Friend, error) {
	if f.blockUntilCancel {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.fakeDirectory.Friends(ctx, server)
}

func (f *fakeClient) SharedServers(ctx context.Context, server plextv.ServerConfig) ([]plextv.SharedServer, error) {
	return f.fakeShareReader.SharedServers(ctx, server)
}

func (f *fakeClient) RemoveFriend(ctx context.Context, server plextv.ServerConfig, accountID int64) error {
	f.removedFriends = append(f.removedFriends, accountID)
	return f.removeFriendErr
}

func (f *fakeClient) CancelInvite(ctx context.Context, server plextv.ServerConfig, inviteID string) error {
	f.canceledInvites = append(f.canceledInvites, inviteID)
	return f.cancelInviteErr
}

type fakeAuditRecorder struct {
	operations []string
	outcomes   []MutationOutcome
}

func (f *fakeAuditRecorder) RecordMutation(ctx context.Context, server plextv.ServerConfig, operation, user string, outcome MutationOutcome) {
	f.operations = append(f.operations, operation)
	f.outcomes = append(f.outcomes, outcome)
}

var testServer = plextv.ServerConfig{Name: "alpha", ServerID: "srv-1"}

func TestShareLibrariesInvitesUnknownUser(t *testing.T) {
	client := &fakeClient{fakeShareReader: fakeShareReader{catalog: testCatalog}}
	audit := &fakeAuditRecorder{}
	service := NewService(client, DefaultBudgets(), audit, nil)

	outcome := service.ShareLibraries(context.Background(), testServer, "new@example.com", []string{"1", "2"})
	if !outcome.Success {
		t.Fatalf("invite should succeed: %+v", outcome)
	}
	if len(client.inviteCalls) != 1 || client.inviteCalls[0] != "new@example.com" {
		t.Fatalf("expected one invite, got %v", client.inviteCalls)
	}
	if !outcome.InviteSent || outcome.LibrariesShared != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(audit.operations) != 1 || audit.operations[0] != "share_libraries" {
		t.Fatalf("mutation must be audited: %v", audit.operations)
	}
}

func TestShareLibrariesUpdatesExistingShare(t *testing.T) {
	client := &fakeClient{fakeShareReader: fakeShareReader{
		catalog: testCatalog,
		shares: []plextv.SharedServer{{
			ID: "900", UserID: 42, Username: "bob", Email: "bob@example.com", AcceptedAt: "1700000000",
			Sections: []plextv.SharedSection{{Key: "1", Shared: "1"}},
		}},
	}}
	service := NewService(client, DefaultBudgets(), nil, nil)

	outcome := service.ShareLibraries(context.Background(), testServer, "Bob@Example.com", []string{"2"})
	if !outcome.Success {
		t.Fatalf("update should succeed: %+v", outcome)
	}
	if len(client.inviteCalls) != 0 {
		t.Fatalf("existing share must be updated, not re-invited")
	}
	if len(client.updateCalls) != 1 || len(client.updateCalls[0]) != 1 || client.updateCalls[0][0] != "2" {
		t.Fatalf("expected full replace with section 2, got %v", client.updateCalls)
	}
}

func TestShareLibrariesUpdatesPendingInviteWithAccountID(t *testing.T) {
	client := &fakeClient{fakeShareReader: fakeShareReader{
		catalog: testCatalog,
		shares: []plextv.SharedServer{{
			ID: "901", UserID: 77, Username: "dana", Email: "dana@example.com", InvitedAt: "1700000000",
			Sections: []plextv.SharedSection{{Key: "1", Shared: "1"}},
		}},
	}}
	service := NewService(client, DefaultBudgets(), nil, nil)

	outcome := service.ShareLibraries(context.Background(), testServer, "dana@example.com", []string{"1", "2"})
	if !outcome.Success {
		t.Fatalf("pending-invite update should succeed: %+v", outcome)
	}
	if len(client.updateCalls) != 1 {
		t.Fatalf("a pending invite with a share record carries an account ID and takes the update path: %v", client.updateCalls)
	}
}

func TestShareLibrariesRevokesFriendResolvedByTitle(t *testing.T) {
	client := &fakeClient{
		fakeDirectory: fakeDirectory{
			friends: []plextv.Friend{{ID: 42, Username: "bob", Email: "bob@example.com", Title: "Bobby"}},
		},
		fakeShareReader: fakeShareReader{
			catalog: testCatalog,
			perUser: map[int64]*plextv.SharedServer{
				42: {Sections: []plextv.SharedSection{{Key: "1", Shared: "1"}}},
			},
		},
	}
	service := NewService(client, DefaultBudgets(), nil, nil)

	outcome := service.ShareLibraries(context.Background(), testServer, "Bobby", nil)
	if !outcome.Success {
		t.Fatalf("revoke should succeed: %+v", outcome)
	}
	if len(client.updateCalls) != 1 || len(client.updateCalls[0]) != 0 {
		t.Fatalf("a friend holding a share must get an empty-set update, got %v", client.updateCalls)
	}
}

func TestShareLibrariesEmptySetUnknownUserIsNoop(t *testing.T) {
	client := &fakeClient{fakeShareReader: fakeShareReader{catalog: testCatalog}}
	service := NewService(client, DefaultBudgets(), nil, nil)

	outcome := service.ShareLibraries(context.Background(), testServer, "ghost@example.com", nil)
	if !outcome.Success {
		t.Fatalf("revoking an unknown user converges trivially: %+v", outcome)
	}
	if len(client.updateCalls)+len(client.deleteCalls)+len(client.inviteCalls) != 0 {
		t.Fatalf("no-op must issue no writes")
	}
}

func TestShareLibrariesAllStaleIDsFails(t *testing.T) {
	client := &fakeClient{fakeShareReader: fakeShareReader{catalog: testCatalog}}
	service := NewService(client, DefaultBudgets(), nil, nil)

	outcome := service.ShareLibraries(context.Background(), testServer, "bob@example.com", []string{"98", "99"})
	if outcome.Success {
		t.Fatalf("all-stale request must fail: %+v", outcome)
	}
	if outcome.Message != "No valid library IDs provided" {
		t.Fatalf("unexpected message: %q", outcome.Message)
	}
	if len(outcome.Warnings) != 2 {
		t.Fatalf("each dropped ID warns once: %v", outcome.Warnings)
	}
}

func TestRemoveUserFriend(t *testing.T) {
	client := &fakeClient{fakeDirectory: fakeDirectory{
		friends: []plextv.Friend{{ID: 42, Username: "bob", Email: "bob@example.com"}},
	}}
	service := NewService(client, DefaultBudgets(), nil, nil)

	outcome := service.RemoveUser(context.Background(), testServer, "bob@example.com")
	if !outcome.Success {
		t.Fatalf("remove should succeed: %+v", outcome)
	}
	if len(client.removedFriends) != 1 || client.removedFriends[0] != 42 {
		t.Fatalf("expected friend removal for account 42, got %v", client.removedFriends)
	}
}

func TestRemoveUserCancelsPendingInvite(t *testing.T) {
	client := &fakeClient{fakeDirectory: fakeDirectory{
		invites: []plextv.PendingInvite{{ID: "inv-3", Email: "new@example.com"}},
	}}
	service := NewService(client, DefaultBudgets(), nil, nil)

	outcome := service.RemoveUser(context.Background(), testServer, "new@example.com")
	if !outcome.Success {
		t.Fatalf("invite cancel should succeed: %+v", outcome)
	}
	if len(client.canceledInvites) != 1 || client.canceledInvites[0] != "inv-3" {
		t.Fatalf("expected invite cancellation, got %v", client.canceledInvites)
	}
	if len(client.removedFriends) != 0 {
		t.Fatalf("no friend removal should run for a pending invite")
	}
}

func TestRemoveUserUnknownIsSuccess(t *testing.T) {
	client := &fakeClient{}
	service := NewService(client, DefaultBudgets(), nil, nil)

	outcome := service.RemoveUser(context.Background(), testServer, "ghost@example.com")
	if !outcome.Success {
		t.Fatalf("removing an absent user converges trivially: %+v", outcome)
	}
}

func TestRemoveUserNotFoundAnswerReclassified(t *testing.T) {
	client := &fakeClient{
		fakeDirectory: fakeDirectory{
			friends: []plextv.Friend{{ID: 42, Username: "bob", Email: "bob@example.com"}},
		},
		removeFriendErr: notFoundErr(),
	}
	service := NewService(client, DefaultBudgets(), nil, nil)

	outcome := service.RemoveUser(context.Background(), testServer, "bob@example.com")
	if !outcome.Success {
		t.Fatalf("not-found answer on removal must reclassify as success: %+v", outcome)
	}
	if !hasWarning(outcome.Warnings, "verify manually") {
		t.Fatalf("expected verify warning: %v", outcome.Warnings)
	}
}

func TestCheckUserFriendWithServerAccess(t *testing.T) {
	client := &fakeClient{
		fakeDirectory: fakeDirectory{
			friends: []plextv.Friend{{ID: 42, Username: "bob", Email: "bob@example.com"}},
		},
		fakeShareReader: fakeShareReader{
			perUser: map[int64]*plextv.SharedServer{
				42: {Sections: []plextv.SharedSection{{Key: "1", Shared: "1"}}},
			},
		},
	}
	service := NewService(client, DefaultBudgets(), nil, nil)

	result := service.CheckUser(context.Background(), testServer, "bob@example.com")
	if !result.Success || result.UserInfo == nil {
		t.Fatalf("check should succeed: %+v", result)
	}
	if !result.UserInfo.Exists || !result.UserInfo.HasServerAccess {
		t.Fatalf("expected existing user with server access: %+v", result.UserInfo)
	}
	if result.UserInfo.UserID != "42" {
		t.Fatalf("unexpected user ID: %q", result.UserInfo.UserID)
	}
}

func TestCheckUserUnknownStillSucceeds(t *testing.T) {
	client := &fakeClient{}
	service := NewService(client, DefaultBudgets(), nil, nil)

	result := service.CheckUser(context.Background(), testServer, "ghost@example.com")
	if !result.Success || result.UserInfo == nil {
		t.Fatalf("an unknown identifier is a successful negative answer: %+v", result)
	}
	if result.UserInfo.Exists || result.UserInfo.PendingInvite || result.UserInfo.HasServerAccess {
		t.Fatalf("unknown user must carry no flags: %+v", result.UserInfo)
	}
}

func TestCheckUserVerifyBudgetTimesOut(t *testing.T) {
	client := &fakeClient{blockUntilCancel: true}
	service := NewService(client, Budgets{Mutate: time.Second, Verify: 20 * time.Millisecond}, nil, nil)

	result := service.CheckUser(context.Background(), testServer, "bob@example.com")
	if result.Success {
		t.Fatalf("blocked directory read must time out: %+v", result)
	}
	if result.Message != "Verification timed out" {
		t.Fatalf("unexpected timeout message: %q", result.Message)
	}
}

func TestUsersWithAccessCountsAndSorting(t *testing.T) {
	client := &fakeClient{fakeShareReader: fakeShareReader{
		catalog: testCatalog,
		shares: []plextv.SharedServer{
			{ID: "1", UserID: 10, Username: "zoe", Email: "zoe@example.com", AcceptedAt: "1700000000",
				Sections: []plextv.SharedSection{{Key: "1", Shared: "1"}}},
			{ID: "2", UserID: 11, Username: "amy", Email: "amy@example.com", InvitedAt: "1700000001",
				Sections: []plextv.SharedSection{{Key: "2", Shared: "1"}}},
		},
		homeUsers: []plextv.HomeUser{{ID: 12, Title: "Mel", Email: "mel@example.com"}},
		perUser: map[int64]*plextv.SharedServer{
			12: {Sections: []plextv.SharedSection{{Key: "1", Shared: "1"}}},
		},
	}}
	service := NewService(client, DefaultBudgets(), nil, nil)

	report := service.UsersWithAccess(context.Background(), testServer)
	if !report.Success {
		t.Fatalf("report should succeed: %+v", report)
	}
	if report.ActiveCount != 2 || report.PendingCount != 1 || report.HomeUsersCount != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if len(report.Users) != 3 || report.Users[0].Email != "amy@example.com" || report.Users[2].Email != "zoe@example.com" {
		t.Fatalf("users must sort by email: %+v", report.Users)
	}
}

func TestReclassifiedWriteIsAudited(t *testing.T) {
	client := &fakeClient{
		fakeShareReader: fakeShareReader{catalog: testCatalog},
		fakeShareWriter: fakeShareWriter{inviteErr: notFoundErr()},
	}
	audit := &fakeAuditRecorder{}
	service := NewService(client, DefaultBudgets(), audit, nil)

	outcome := service.ShareLibraries(context.Background(), testServer, "new@example.com", []string{"1"})
	if !outcome.Success {
		t.Fatalf("reclassified invite should succeed: %+v", outcome)
	}
	if len(audit.outcomes) != 1 || !hasWarning(audit.outcomes[0].Warnings, "verify manually") {
		t.Fatalf("audit must capture the reclassified outcome with its warning: %+v", audit.outcomes)
	}
}
