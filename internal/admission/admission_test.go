package admission

import (
	"context"
	"testing"
	"time"

	"eventhub/internal/auth"
	"eventhub/internal/model"
)

type fakeDirectory struct {
	members map[string]bool
}

func (d *fakeDirectory) IsAdmin(_ context.Context, email string) (bool, error) {
	return d.members[email], nil
}

func newTestController(members ...string) *Controller {
	dir := &fakeDirectory{members: make(map[string]bool)}
	for _, m := range members {
		dir.members[m] = true
	}
	return NewController(dir, "Root@Society.org")
}

func TestAuthorize_Matrix(t *testing.T) {
	t.Parallel()

	c := newTestController("board@society.org")
	ctx := context.Background()
	owner := "ann@x.com"

	tests := []struct {
		name   string
		caller auth.Identity
		want   Decision
	}{
		{"anonymous", auth.Identity{}, Denied},
		{"owner", auth.Identity{Subject: "u1", Email: "ann@x.com"}, SelfAuthorized},
		{"owner case-insensitive", auth.Identity{Subject: "u1", Email: "Ann@X.com"}, SelfAuthorized},
		{"third party", auth.Identity{Subject: "u2", Email: "bob@x.com"}, Denied},
		{"directory admin", auth.Identity{Subject: "u3", Email: "board@society.org"}, AdminAuthorized},
		{"super admin", auth.Identity{Subject: "u4", Email: "root@society.org"}, AdminAuthorized},
		{"super admin mixed case", auth.Identity{Subject: "u4", Email: "ROOT@society.org"}, AdminAuthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Authorize(ctx, tt.caller, owner)
			if err != nil {
				t.Fatalf("Authorize error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Authorize = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorize_AdminWinsOverOwnership(t *testing.T) {
	t.Parallel()

	c := newTestController("ann@x.com")
	got, err := c.Authorize(context.Background(), auth.Identity{Subject: "u1", Email: "ann@x.com"}, "ann@x.com")
	if err != nil {
		t.Fatalf("Authorize error: %v", err)
	}
	if got != AdminAuthorized {
		t.Fatalf("Authorize = %v, want AdminAuthorized", got)
	}
}

func TestAdmitRegistration(t *testing.T) {
	t.Parallel()

	c := newTestController()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   model.Event
		wantErr error
	}{
		{"open no deadline", model.Event{RegistrationOpen: true}, nil},
		{"closed flag", model.Event{RegistrationOpen: false}, ErrRegistrationClosed},
		{"closed flag trumps future deadline", model.Event{RegistrationOpen: false, Deadline: "2025-12-31T00:00:00Z"}, ErrRegistrationClosed},
		{"deadline passed", model.Event{RegistrationOpen: true, Deadline: "2025-01-01T00:00:00Z"}, ErrRegistrationClosed},
		{"deadline ahead", model.Event{RegistrationOpen: true, Deadline: "2025-12-31T00:00:00Z"}, nil},
		{"malformed deadline ignored", model.Event{RegistrationOpen: true, Deadline: "next friday"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.AdmitRegistration(&tt.event, now)
			if err != tt.wantErr {
				t.Fatalf("AdmitRegistration = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAdmitSubmission(t *testing.T) {
	t.Parallel()

	c := newTestController()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := auth.Identity{Subject: "u1", Email: "ann@x.com"}

	tests := []struct {
		name    string
		caller  auth.Identity
		event   model.Event
		size    int64
		wantErr error
	}{
		{"anonymous", auth.Identity{}, model.Event{SubmissionType: model.SubmissionFile}, 1 << 20, ErrUnauthenticated},
		{"submissions disabled", user, model.Event{SubmissionType: model.SubmissionNone}, 1 << 20, ErrSubmissionsDisabled},
		{"type unset", user, model.Event{}, 1 << 20, ErrSubmissionsDisabled},
		{"deadline passed", user, model.Event{SubmissionType: model.SubmissionFile, SubmissionDeadline: "2025-01-01T00:00:00Z"}, 1 << 20, ErrSubmissionsClosed},
		{"within limit", user, model.Event{SubmissionType: model.SubmissionBoth, MaxFileSize: 2}, 2 << 20, nil},
		{"over event limit", user, model.Event{SubmissionType: model.SubmissionFile, MaxFileSize: 2}, 3 << 20, ErrFileTooLarge},
		// The platform cap wins even when the admin configured 50MB.
		{"over platform cap", user, model.Event{SubmissionType: model.SubmissionFile, MaxFileSize: 50}, 5 << 20, ErrFileTooLarge},
		{"at platform cap", user, model.Event{SubmissionType: model.SubmissionFile, MaxFileSize: 50}, 4 << 20, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.AdmitSubmission(tt.caller, &tt.event, tt.size, now)
			if err != tt.wantErr {
				t.Fatalf("AdmitSubmission = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveFileLimitMB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		configured int
		want       int
	}{
		{0, PlatformCapMB},  // default 10 is still above the cap
		{2, 2},
		{4, 4},
		{50, PlatformCapMB},
	}
	for _, tt := range tests {
		got := EffectiveFileLimitMB(&model.Event{MaxFileSize: tt.configured})
		if got != tt.want {
			t.Fatalf("EffectiveFileLimitMB(%d) = %d, want %d", tt.configured, got, tt.want)
		}
	}
}

func TestIsAdmin_ReconsultsDirectory(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{members: map[string]bool{}}
	c := NewController(dir, "root@society.org")
	caller := auth.Identity{Subject: "u1", Email: "new@society.org"}

	ok, err := c.IsAdmin(context.Background(), caller)
	if err != nil {
		t.Fatalf("IsAdmin error: %v", err)
	}
	if ok {
		t.Fatal("expected non-member to be denied")
	}

	// Membership granted between requests takes effect immediately.
	dir.members["new@society.org"] = true
	ok, err = c.IsAdmin(context.Background(), caller)
	if err != nil {
		t.Fatalf("IsAdmin error: %v", err)
	}
	if !ok {
		t.Fatal("expected fresh membership to be honored")
	}
}
