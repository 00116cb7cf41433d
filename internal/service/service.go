package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventhub/cmd/middleware"
	"eventhub/internal/admission"
	"eventhub/internal/auth"
	"eventhub/internal/dto"
	"eventhub/internal/model"
	"eventhub/internal/repo"
	"eventhub/internal/upload"
	"eventhub/pkg/validator"
)

// Publisher is the queue side the registration path needs: publish and done.
type Publisher interface {
	Publish(message []byte) error
}

type Service interface {
	GetEvents(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)

	GetRegistrations(ctx *ginext.Context)
	CreateRegistration(ctx *ginext.Context)
	DeleteRegistration(ctx *ginext.Context)

	GetSubmissions(ctx *ginext.Context)
	CreateSubmission(ctx *ginext.Context)
	DeleteSubmission(ctx *ginext.Context)
	DownloadSubmission(ctx *ginext.Context)

	GetSettings(ctx *ginext.Context)
	UpdateSettings(ctx *ginext.Context)

	GetAdmins(ctx *ginext.Context)
	AddAdmin(ctx *ginext.Context)
	RemoveAdmin(ctx *ginext.Context)

	UploadImage(ctx *ginext.Context)
}

type service struct {
	repo    repo.Repository
	adm     *admission.Controller
	queue   Publisher
	uploads *upload.Saver
	log     *zerolog.Logger
}

func NewService(repository repo.Repository, adm *admission.Controller, queue Publisher, uploads *upload.Saver, logger *zerolog.Logger) Service {
	return &service{
		repo:    repository,
		adm:     adm,
		queue:   queue,
		uploads: uploads,
		log:     logger,
	}
}

// requireAdmin fails closed: it answers 401/403 itself and reports whether
// the handler may continue. Membership is checked against the store on every
// request, so roster changes apply immediately.
func (s *service) requireAdmin(ctx *ginext.Context) bool {
	ident := middleware.IdentityFrom(ctx)
	if ident.Anonymous() {
		dto.ErrorResponse(ctx, 401, "Authentication required")
		return false
	}
	ok, err := s.adm.IsAdmin(ctx.Request.Context(), ident)
	if err != nil {
		s.log.Error().Err(err).Msg("admin check failed")
		dto.InternalServerError(ctx)
		return false
	}
	if !ok {
		dto.ErrorResponse(ctx, 403, "Admin access required")
		return false
	}
	return true
}

func parseIDQuery(ctx *ginext.Context, name string) (int64, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *service) GetEvents(ctx *ginext.Context) {
	if raw := ctx.Query("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			dto.ErrorResponse(ctx, 400, "Invalid event ID")
			return
		}
		event, err := s.repo.GetEventByID(ctx.Request.Context(), id)
		if err != nil {
			if errors.Is(err, repo.ErrEventNotFound) {
				dto.ErrorResponse(ctx, 404, "Event not found")
				return
			}
			s.log.Error().Err(err).Msg("failed to get event")
			dto.InternalServerError(ctx)
			return
		}
		ctx.JSON(200, dto.EventResponse{Event: event})
		return
	}

	events, err := s.repo.GetAllEvents(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get events")
		dto.InternalServerError(ctx)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	ctx.JSON(200, dto.EventsResponse{Events: events})
}

// applyEventPayload maps the explicit admin form onto an event, filling the
// documented defaults for blank fields.
func applyEventPayload(p *dto.EventPayload, e *model.Event) {
	e.Name = strings.TrimSpace(p.Name)
	e.Tagline = strings.TrimSpace(p.Tagline)
	e.Description = strings.TrimSpace(p.Description)
	e.Image = p.Image
	if e.Image == "" {
		e.Image = "📅"
	}
	e.ImagePath = p.ImagePath
	e.Date = p.Date
	e.Time = p.Time
	e.Duration = p.Duration
	e.Mode = p.Mode
	if e.Mode == "" {
		e.Mode = model.ModeOffline
	}
	e.Location = p.Location
	e.Category = p.Category
	e.TeamSize = p.TeamSize
	if e.TeamSize == "" {
		e.TeamSize = "Individual"
	}
	e.RegistrationDeadline = p.RegistrationDeadline
	e.Deadline = p.Deadline
	e.RegistrationOpen = true
	if p.RegistrationOpen != nil {
		e.RegistrationOpen = *p.RegistrationOpen
	}
	e.Prizes = append([]string{}, p.Prizes...)
	e.Requirements = append([]string{}, p.Requirements...)
	e.Highlights = append([]string{}, p.Highlights...)
	e.CommunityLink = p.CommunityLink
	e.ProblemStatement = p.ProblemStatement
	e.SubmissionType = p.SubmissionType
	if e.SubmissionType == "" {
		e.SubmissionType = model.SubmissionNone
	}
	e.DriveLink = p.DriveLink
	e.SubmissionDeadline = p.SubmissionDeadline
	e.MaxFileSize = p.MaxFileSize
	if e.MaxFileSize == 0 {
		e.MaxFileSize = model.DefaultMaxFileSizeMB
	}
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	if !s.requireAdmin(ctx) {
		return
	}

	var req dto.EventPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.ErrorResponse(ctx, 400, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.ErrorResponse(ctx, 400, fmt.Sprintf("%v", verr))
		return
	}

	var event model.Event
	applyEventPayload(&req, &event)
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt

	id, err := s.repo.CreateEvent(ctx.Request.Context(), &event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create event")
		dto.InternalServerError(ctx)
		return
	}
	event.ID = id

	s.log.Info().Int64("event_id", id).Msg("event created")
	ctx.JSON(201, dto.EventResponse{Success: true, Event: &event})
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	if !s.requireAdmin(ctx) {
		return
	}

	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.ErrorResponse(ctx, 400, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.ErrorResponse(ctx, 400, fmt.Sprintf("%v", verr))
		return
	}

	event := model.Event{ID: req.ID}
	applyEventPayload(&req.EventPayload, &event)
	event.UpdatedAt = time.Now()

	if err := s.repo.UpdateEvent(ctx.Request.Context(), &event); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.ErrorResponse(ctx, 404, "Event not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to update event")
		dto.InternalServerError(ctx)
		return
	}

	ctx.JSON(200, dto.EventResponse{Success: true, Event: &event})
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	if !s.requireAdmin(ctx) {
		return
	}

	id, ok := parseIDQuery(ctx, "id")
	if !ok {
		dto.ErrorResponse(ctx, 400, "Event ID required")
		return
	}

	// Registrations and submissions for the event are left in place with
	// their snapshot of the event name.
	if err := s.repo.DeleteEvent(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.ErrorResponse(ctx, 404, "Event not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to delete event")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", id).Msg("event deleted")
	ctx.JSON(200, dto.SuccessOnly{Success: true})
}

func (s *service) GetRegistrations(ctx *ginext.Context) {
	email := ctx.Query("email")
	eventID, hasEventID := parseIDQuery(ctx, "eventId")
	ident := middleware.IdentityFrom(ctx)

	// Registration-status check for one (email, event) pair: owner or admin
	// only, so arbitrary callers cannot enumerate who is registered.
	if email != "" && hasEventID {
		decision, err := s.adm.Authorize(ctx.Request.Context(), ident, email)
		if err != nil {
			s.log.Error().Err(err).Msg("authorization check failed")
			dto.InternalServerError(ctx)
			return
		}
		if decision == admission.Denied {
			if ident.Anonymous() {
				dto.ErrorResponse(ctx, 401, "Authentication required")
				return
			}
			dto.ErrorResponse(ctx, 403, "Unauthorized to check registration status")
			return
		}

		_, err = s.repo.GetRegistration(ctx.Request.Context(), eventID, auth.NormalizeEmail(email))
		if err != nil {
			if errors.Is(err, repo.ErrRegistrationNotFound) {
				ctx.JSON(200, dto.IsRegisteredResponse{IsRegistered: false})
				return
			}
			s.log.Error().Err(err).Msg("failed to check registration")
			dto.InternalServerError(ctx)
			return
		}
		ctx.JSON(200, dto.IsRegisteredResponse{IsRegistered: true})
		return
	}

	// Own registrations list.
	if email != "" {
		decision, err := s.adm.Authorize(ctx.Request.Context(), ident, email)
		if err != nil {
			s.log.Error().Err(err).Msg("authorization check failed")
			dto.InternalServerError(ctx)
			return
		}
		if decision == admission.Denied {
			if ident.Anonymous() {
				dto.ErrorResponse(ctx, 401, "Authentication required")
				return
			}
			dto.ErrorResponse(ctx, 403, "Forbidden")
			return
		}

		regs, err := s.repo.GetRegistrationsByEmail(ctx.Request.Context(), auth.NormalizeEmail(email))
		if err != nil {
			s.log.Error().Err(err).Msg("failed to list registrations")
			dto.InternalServerError(ctx)
			return
		}
		if regs == nil {
			regs = []model.Registration{}
		}
		ctx.JSON(200, dto.RegistrationsResponse{Registrations: regs})
		return
	}

	// Full ledger: admin only.
	if !s.requireAdmin(ctx) {
		return
	}
	regs, err := s.repo.GetAllRegistrations(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registrations")
		dto.InternalServerError(ctx)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	ctx.JSON(200, dto.RegistrationsResponse{Registrations: regs})
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func (s *service) CreateRegistration(ctx *ginext.Context) {
	var req dto.CreateRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.ErrorResponse(ctx, 400, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.ErrorResponse(ctx, 400, fmt.Sprintf("%v", verr))
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), req.EventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.ErrorResponse(ctx, 404, "Event not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to resolve event")
		dto.InternalServerError(ctx)
		return
	}

	if err := s.adm.AdmitRegistration(event, time.Now()); err != nil {
		dto.ErrorResponse(ctx, 400, "Registration is closed for this event")
		return
	}

	email := auth.NormalizeEmail(req.Email)

	// Fast path only: the unique index decides the race.
	if _, err := s.repo.GetRegistration(ctx.Request.Context(), req.EventID, email); err == nil {
		dto.AlreadyRegisteredResponse(ctx)
		return
	} else if !errors.Is(err, repo.ErrRegistrationNotFound) {
		s.log.Error().Err(err).Msg("failed to check existing registration")
		dto.InternalServerError(ctx)
		return
	}

	now := time.Now()
	registration := &model.Registration{
		ID:           now.UnixMilli(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Course:       orDefault(req.Course, "Not specified"),
		Year:         orDefault(req.Year, "Not specified"),
		College:      orDefault(req.College, "Not specified"),
		Phone:        orDefault(req.Phone, "Not provided"),
		EventID:      event.ID,
		EventName:    strings.TrimSpace(event.Name),
		RegisteredAt: now,
	}

	if err := s.repo.CreateRegistration(ctx.Request.Context(), registration); err != nil {
		if errors.Is(err, repo.ErrDuplicateRegistration) {
			dto.AlreadyRegisteredResponse(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to create registration")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("registration_id", registration.ID).
		Int64("event_id", event.ID).
		Msg("registration created")

	s.dispatchConfirmation(registration, event)

	ctx.JSON(201, dto.CreateRegistrationResponse{Success: true, Registration: registration})
}

// dispatchConfirmation hands the confirmation mail to the queue off the
// request path. Publish failures are logged and dropped; the registration has
// already committed.
func (s *service) dispatchConfirmation(reg *model.Registration, event *model.Event) {
	if s.queue == nil {
		return
	}
	msg := dto.ConfirmationMessage{
		Name:          reg.Name,
		Email:         reg.Email,
		EventName:     reg.EventName,
		EventDate:     event.Date,
		EventTime:     event.Time,
		EventMode:     event.Mode,
		EventLocation: event.Location,
		CommunityLink: event.CommunityLink,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal confirmation message")
		return
	}
	go func() {
		if err := s.queue.Publish(payload); err != nil {
			s.log.Warn().Err(err).Str("email", reg.Email).Msg("confirmation dispatch dropped")
		}
	}()
}

func (s *service) DeleteRegistration(ctx *ginext.Context) {
	if !s.requireAdmin(ctx) {
		return
	}

	id, ok := parseIDQuery(ctx, "id")
	if !ok {
		dto.ErrorResponse(ctx, 400, "Missing registration ID")
		return
	}

	if err := s.repo.DeleteRegistration(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.ErrorResponse(ctx, 404, "Registration not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to delete registration")
		dto.InternalServerError(ctx)
		return
	}
	ctx.JSON(200, dto.SuccessOnly{Success: true})
}

func (s *service) GetSubmissions(ctx *ginext.Context) {
	if ctx.Query("all") == "true" {
		if !s.requireAdmin(ctx) {
			return
		}
		subs, err := s.repo.GetAllSubmissions(ctx.Request.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("failed to list submissions")
			dto.InternalServerError(ctx)
			return
		}
		if subs == nil {
			subs = []model.Submission{}
		}
		ctx.JSON(200, dto.SubmissionsResponse{Submissions: subs})
		return
	}

	eventID, hasEventID := parseIDQuery(ctx, "eventId")
	if !hasEventID {
		dto.ErrorResponse(ctx, 400, "Event ID required")
		return
	}

	// Own-submission check: owner or admin, same rule as registrations.
	if email := ctx.Query("userEmail"); email != "" {
		ident := middleware.IdentityFrom(ctx)
		decision, err := s.adm.Authorize(ctx.Request.Context(), ident, email)
		if err != nil {
			s.log.Error().Err(err).Msg("authorization check failed")
			dto.InternalServerError(ctx)
			return
		}
		if decision == admission.Denied {
			if ident.Anonymous() {
				dto.ErrorResponse(ctx, 401, "Authentication required")
				return
			}
			dto.ErrorResponse(ctx, 403, "Forbidden")
			return
		}

		sub, err := s.repo.GetSubmission(ctx.Request.Context(), eventID, auth.NormalizeEmail(email))
		if err != nil {
			if errors.Is(err, repo.ErrSubmissionNotFound) {
				ctx.JSON(200, dto.SubmissionCheckResponse{HasSubmission: false})
				return
			}
			s.log.Error().Err(err).Msg("failed to check submission")
			dto.InternalServerError(ctx)
			return
		}
		ctx.JSON(200, dto.SubmissionCheckResponse{HasSubmission: true, Submission: sub})
		return
	}

	if !s.requireAdmin(ctx) {
		return
	}
	subs, err := s.repo.GetSubmissionsByEventID(ctx.Request.Context(), eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list submissions")
		dto.InternalServerError(ctx)
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	ctx.JSON(200, dto.SubmissionsResponse{Submissions: subs})
}

func (s *service) CreateSubmission(ctx *ginext.Context) {
	ident := middleware.IdentityFrom(ctx)
	if ident.Anonymous() {
		dto.ErrorResponse(ctx, 401, "Authentication required")
		return
	}

	eventIDRaw := ctx.PostForm("eventId")
	eventID, err := strconv.ParseInt(eventIDRaw, 10, 64)
	if err != nil {
		dto.ErrorResponse(ctx, 400, "Invalid event ID")
		return
	}
	userEmail := auth.NormalizeEmail(ctx.PostForm("userEmail"))
	if userEmail == "" {
		userEmail = ident.Email
	}
	if userEmail == "" {
		dto.ErrorResponse(ctx, 400, "Missing required fields")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		dto.ErrorResponse(ctx, 400, "Missing required fields")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.ErrorResponse(ctx, 404, "Event not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to resolve event")
		dto.InternalServerError(ctx)
		return
	}

	if err := s.adm.AdmitSubmission(ident, event, fileHeader.Size, time.Now()); err != nil {
		switch {
		case errors.Is(err, admission.ErrUnauthenticated):
			dto.ErrorResponse(ctx, 401, "Authentication required")
		case errors.Is(err, admission.ErrFileTooLarge):
			dto.ErrorResponse(ctx, 400, fmt.Sprintf("File exceeds the %dMB limit", admission.EffectiveFileLimitMB(event)))
		default:
			dto.ErrorResponse(ctx, 400, err.Error())
		}
		return
	}

	// Fast path only: the unique index decides the race.
	if _, err := s.repo.GetSubmission(ctx.Request.Context(), eventID, userEmail); err == nil {
		dto.ErrorResponse(ctx, 409, "Submission already exists for this event")
		return
	} else if !errors.Is(err, repo.ErrSubmissionNotFound) {
		s.log.Error().Err(err).Msg("failed to check existing submission")
		dto.InternalServerError(ctx)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to open uploaded file")
		dto.InternalServerError(ctx)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read uploaded file")
		dto.InternalServerError(ctx)
		return
	}

	now := time.Now()
	sub := &model.Submission{
		ID:          now.UnixMilli(),
		EventID:     eventID,
		EventName:   event.Name,
		UserEmail:   userEmail,
		UserName:    strings.TrimSpace(ctx.PostForm("userName")),
		FileName:    fileHeader.Filename,
		FileSize:    fileHeader.Size,
		FileType:    fileHeader.Header.Get("Content-Type"),
		Content:     content,
		SubmittedAt: now,
	}
	sub.FilePath = fmt.Sprintf("/api/download?id=%d", sub.ID)

	if err := s.repo.CreateSubmission(ctx.Request.Context(), sub); err != nil {
		if errors.Is(err, repo.ErrDuplicateSubmission) {
			dto.ErrorResponse(ctx, 409, "Submission already exists for this event")
			return
		}
		s.log.Error().Err(err).Msg("failed to store submission")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("submission_id", sub.ID).
		Int64("event_id", eventID).
		Str("email", userEmail).
		Msg("submission stored")

	ctx.JSON(201, dto.SubmissionCreatedResponse{
		Success: true,
		Submission: dto.SubmissionSummary{
			ID:          sub.ID,
			FileName:    sub.FileName,
			SubmittedAt: sub.SubmittedAt,
		},
	})
}

// DeleteSubmission is both the admin "reset" (allow re-submission) and the
// permanent delete; the record is gone either way.
func (s *service) DeleteSubmission(ctx *ginext.Context) {
	if !s.requireAdmin(ctx) {
		return
	}

	id, ok := parseIDQuery(ctx, "id")
	if !ok {
		dto.ErrorResponse(ctx, 400, "Submission ID required")
		return
	}

	if err := s.repo.DeleteSubmission(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, repo.ErrSubmissionNotFound) {
			dto.ErrorResponse(ctx, 404, "Submission not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to delete submission")
		dto.InternalServerError(ctx)
		return
	}
	ctx.JSON(200, dto.SuccessOnly{Success: true})
}

// DownloadSubmission streams the stored file. Owner or admin only.
func (s *service) DownloadSubmission(ctx *ginext.Context) {
	id, ok := parseIDQuery(ctx, "id")
	if !ok {
		dto.ErrorResponse(ctx, 400, "Submission ID required")
		return
	}

	sub, err := s.repo.GetSubmissionByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrSubmissionNotFound) {
			dto.ErrorResponse(ctx, 404, "Submission not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to load submission")
		dto.InternalServerError(ctx)
		return
	}

	ident := middleware.IdentityFrom(ctx)
	decision, err := s.adm.Authorize(ctx.Request.Context(), ident, sub.UserEmail)
	if err != nil {
		s.log.Error().Err(err).Msg("authorization check failed")
		dto.InternalServerError(ctx)
		return
	}
	if decision == admission.Denied {
		if ident.Anonymous() {
			dto.ErrorResponse(ctx, 401, "Authentication required")
			return
		}
		dto.ErrorResponse(ctx, 403, "Forbidden")
		return
	}

	contentType := sub.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sub.FileName))
	ctx.Data(200, contentType, sub.Content)
}

func (s *service) GetSettings(ctx *ginext.Context) {
	open, err := s.repo.GetRegistrationOpen(ctx.Request.Context())
	if err != nil {
		// Banner-only flag: fall back to open instead of failing the page.
		s.log.Error().Err(err).Msg("failed to read settings")
		ctx.JSON(200, dto.SettingsResponse{RegistrationOpen: true})
		return
	}
	ctx.JSON(200, dto.SettingsResponse{RegistrationOpen: open})
}

func (s *service) UpdateSettings(ctx *ginext.Context) {
	if !s.requireAdmin(ctx) {
		return
	}

	var req dto.UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.ErrorResponse(ctx, 400, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.ErrorResponse(ctx, 400, fmt.Sprintf("%v", verr))
		return
	}

	if err := s.repo.SetRegistrationOpen(ctx.Request.Context(), *req.RegistrationOpen); err != nil {
		s.log.Error().Err(err).Msg("failed to save settings")
		dto.InternalServerError(ctx)
		return
	}
	ctx.JSON(200, dto.SettingsResponse{Success: true, RegistrationOpen: *req.RegistrationOpen})
}

func (s *service) GetAdmins(ctx *ginext.Context) {
	if !s.requireAdmin(ctx) {
		return
	}
	admins, err := s.repo.ListAdmins(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list admins")
		dto.InternalServerError(ctx)
		return
	}
	ctx.JSON(200, dto.AdminsResponse{Admins: admins})
}

func (s *service) AddAdmin(ctx *ginext.Context) {
	if !s.requireAdmin(ctx) {
		return
	}

	var req dto.AddAdminRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.ErrorResponse(ctx, 400, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.ErrorResponse(ctx, 400, fmt.Sprintf("%v", verr))
		return
	}

	email := auth.NormalizeEmail(req.Email)
	if s.adm.IsSuperAdmin(email) {
		dto.ErrorResponse(ctx, 409, "Admin already exists")
		return
	}

	if err := s.repo.AddAdmin(ctx.Request.Context(), email); err != nil {
		if errors.Is(err, repo.ErrDuplicateAdmin) {
			dto.ErrorResponse(ctx, 409, "Admin already exists")
			return
		}
		s.log.Error().Err(err).Msg("failed to add admin")
		dto.InternalServerError(ctx)
		return
	}

	s.respondAdminList(ctx)
}

func (s *service) RemoveAdmin(ctx *ginext.Context) {
	if !s.requireAdmin(ctx) {
		return
	}

	email := auth.NormalizeEmail(ctx.Query("email"))
	if email == "" {
		dto.ErrorResponse(ctx, 400, "Email required")
		return
	}
	if s.adm.IsSuperAdmin(email) {
		dto.ErrorResponse(ctx, 403, "Cannot remove the super admin")
		return
	}

	if err := s.repo.RemoveAdmin(ctx.Request.Context(), email); err != nil {
		if errors.Is(err, repo.ErrAdminNotFound) {
			dto.ErrorResponse(ctx, 404, "Admin not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to remove admin")
		dto.InternalServerError(ctx)
		return
	}

	s.respondAdminList(ctx)
}

func (s *service) respondAdminList(ctx *ginext.Context) {
	admins, err := s.repo.ListAdmins(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list admins")
		dto.InternalServerError(ctx)
		return
	}
	ctx.JSON(200, dto.AdminsResponse{Success: true, Admins: admins})
}

func (s *service) UploadImage(ctx *ginext.Context) {
	if !s.requireAdmin(ctx) {
		return
	}

	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		dto.ErrorResponse(ctx, 400, "No image file provided")
		return
	}
	if fileHeader.Size > upload.MaxImageBytes {
		dto.ErrorResponse(ctx, 400, "Image exceeds the 5MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to open uploaded image")
		dto.InternalServerError(ctx)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read uploaded image")
		dto.InternalServerError(ctx)
		return
	}

	publicPath, filename, err := s.uploads.SaveImage(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrNotImage):
			dto.ErrorResponse(ctx, 400, "Invalid image file. File content does not match a valid image format.")
		case errors.Is(err, upload.ErrTooLarge):
			dto.ErrorResponse(ctx, 400, "Image exceeds the 5MB limit")
		default:
			s.log.Error().Err(err).Msg("failed to save uploaded image")
			dto.InternalServerError(ctx)
		}
		return
	}

	ctx.JSON(200, dto.UploadResponse{Success: true, ImagePath: publicPath, Filename: filename})
}
