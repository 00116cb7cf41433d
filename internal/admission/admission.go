// Package admission holds the decision logic for the whole service: whether
// a caller may act on a resource, whether an event currently accepts
// registrations, and whether it accepts a submission of a given size.
// It reads state through narrow interfaces and never writes.
package admission

import (
	"context"
	"errors"
	"strings"
	"time"

	"eventhub/internal/auth"
	"eventhub/internal/model"
)

// PlatformCapMB protects the storage backend no matter what limit an admin
// configures on the event. The configured limit can only tighten it.
const PlatformCapMB = 4

var (
	ErrRegistrationClosed  = errors.New("registration is closed for this event")
	ErrSubmissionsDisabled = errors.New("this event does not accept submissions")
	ErrSubmissionsClosed   = errors.New("submission deadline has passed")
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrUnauthenticated     = errors.New("authentication required")
)

type Decision int

const (
	Denied Decision = iota
	SelfAuthorized
	AdminAuthorized
)

// Directory is the persisted admin allowlist. The super admin lives outside
// it, in configuration.
type Directory interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

type Controller struct {
	dir        Directory
	superAdmin string
}

func NewController(dir Directory, superAdmin string) *Controller {
	return &Controller{dir: dir, superAdmin: auth.NormalizeEmail(superAdmin)}
}

func (c *Controller) SuperAdmin() string {
	return c.superAdmin
}

// IsSuperAdmin reports whether the email is the configured super admin,
// compared case-insensitively.
func (c *Controller) IsSuperAdmin(email string) bool {
	return c.superAdmin != "" && strings.EqualFold(strings.TrimSpace(email), c.superAdmin)
}

// IsAdmin checks directory membership on every call: a roster change takes
// effect on the caller's next request, nothing is cached.
func (c *Controller) IsAdmin(ctx context.Context, caller auth.Identity) (bool, error) {
	if caller.Anonymous() || caller.Email == "" {
		return false, nil
	}
	if c.IsSuperAdmin(caller.Email) {
		return true, nil
	}
	return c.dir.IsAdmin(ctx, auth.NormalizeEmail(caller.Email))
}

// Authorize decides access to a per-user resource. Admins win over ownership;
// an authenticated non-admin gets in only for their own email; everyone else
// is denied, which keeps registration state from being enumerable.
func (c *Controller) Authorize(ctx context.Context, caller auth.Identity, ownerEmail string) (Decision, error) {
	if caller.Anonymous() {
		return Denied, nil
	}
	admin, err := c.IsAdmin(ctx, caller)
	if err != nil {
		return Denied, err
	}
	if admin {
		return AdminAuthorized, nil
	}
	if caller.Email != "" && strings.EqualFold(caller.Email, strings.TrimSpace(ownerEmail)) {
		return SelfAuthorized, nil
	}
	return Denied, nil
}

// AdmitRegistration gates the registration path on event state alone: the
// per-event flag and the hard deadline. The global registrationOpen setting
// is a landing-page banner and deliberately does not gate this path.
func (c *Controller) AdmitRegistration(e *model.Event, now time.Time) error {
	if !e.RegistrationOpen {
		return ErrRegistrationClosed
	}
	if deadlinePassed(e.Deadline, now) {
		return ErrRegistrationClosed
	}
	return nil
}

// AdmitSubmission gates an upload. Duplicate detection is not done here; the
// store's unique constraint is the authority for that.
func (c *Controller) AdmitSubmission(caller auth.Identity, e *model.Event, fileSize int64, now time.Time) error {
	if caller.Anonymous() {
		return ErrUnauthenticated
	}
	if e.SubmissionType == "" || e.SubmissionType == model.SubmissionNone {
		return ErrSubmissionsDisabled
	}
	if deadlinePassed(e.SubmissionDeadline, now) {
		return ErrSubmissionsClosed
	}
	if fileSize > int64(EffectiveFileLimitMB(e))<<20 {
		return ErrFileTooLarge
	}
	return nil
}

// EffectiveFileLimitMB is min(event limit, platform cap). The platform cap
// always wins, even when an admin configures a larger number.
func EffectiveFileLimitMB(e *model.Event) int {
	limit := e.MaxFileSize
	if limit <= 0 {
		limit = model.DefaultMaxFileSizeMB
	}
	if limit > PlatformCapMB {
		limit = PlatformCapMB
	}
	return limit
}

// Deadlines are stored as ISO timestamps; an empty string means no deadline.
// A malformed value is treated as absent rather than locking the event shut.
func deadlinePassed(deadline string, now time.Time) bool {
	if deadline == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, deadline)
	if err != nil {
		return false
	}
	return now.After(t)
}
