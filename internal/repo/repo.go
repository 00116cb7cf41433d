package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"eventhub/internal/model"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrAdminNotFound         = errors.New("admin not found")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrDuplicateSubmission   = errors.New("duplicate submission")
	ErrDuplicateAdmin        = errors.New("duplicate admin")
)

type Repository interface {
	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	GetAllEvents(ctx context.Context) ([]model.Event, error)

	CreateRegistration(ctx context.Context, reg *model.Registration) error
	GetRegistration(ctx context.Context, eventID int64, email string) (*model.Registration, error)
	GetRegistrationsByEmail(ctx context.Context, email string) ([]model.Registration, error)
	GetAllRegistrations(ctx context.Context) ([]model.Registration, error)
	DeleteRegistration(ctx context.Context, id int64) error

	CreateSubmission(ctx context.Context, sub *model.Submission) error
	GetSubmission(ctx context.Context, eventID int64, email string) (*model.Submission, error)
	GetSubmissionByID(ctx context.Context, id int64) (*model.Submission, error)
	GetSubmissionsByEventID(ctx context.Context, eventID int64) ([]model.Submission, error)
	GetAllSubmissions(ctx context.Context) ([]model.Submission, error)
	DeleteSubmission(ctx context.Context, id int64) error

	IsAdmin(ctx context.Context, email string) (bool, error)
	ListAdmins(ctx context.Context) ([]string, error)
	AddAdmin(ctx context.Context, email string) error
	RemoveAdmin(ctx context.Context, email string) error

	GetRegistrationOpen(ctx context.Context) (bool, error)
	SetRegistrationOpen(ctx context.Context, open bool) error

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

// isUniqueViolation recognizes Postgres error 23505. The unique index, not
// any pre-check, is the authority for every duplicate decision.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// uniqueViolationOn narrows 23505 to a named constraint, so a primary-key
// collision is not mistaken for a business-level duplicate.
func uniqueViolationOn(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return pqErr.Constraint == "" || pqErr.Constraint == constraint
}

func (r *repository) MigrateUp(migrationsDir string) error {
	return r.applyMigrations(migrationsDir, "*.up.sql")
}

func (r *repository) MigrateDown(migrationsDir string) error {
	return r.applyMigrations(migrationsDir, "*.down.sql")
}

func (r *repository) applyMigrations(migrationsDir, pattern string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied from %s (%s)", migrationsDir, pattern)
	return nil
}

const eventColumns = `
	id, name, tagline, description, image, image_path,
	event_date, event_time, duration, mode, location, category, team_size,
	registration_deadline, deadline, registration_open,
	prizes, requirements, highlights, community_link, problem_statement,
	submission_type, drive_link, submission_deadline, max_file_size,
	created_at, updated_at
`

func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Name, &e.Tagline, &e.Description, &e.Image, &e.ImagePath,
		&e.Date, &e.Time, &e.Duration, &e.Mode, &e.Location, &e.Category, &e.TeamSize,
		&e.RegistrationDeadline, &e.Deadline, &e.RegistrationOpen,
		&e.Prizes, &e.Requirements, &e.Highlights, &e.CommunityLink, &e.ProblemStatement,
		&e.SubmissionType, &e.DriveLink, &e.SubmissionDeadline, &e.MaxFileSize,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent assigns the next id inside the insert itself, so max+1 is
// atomic at the store instead of a read-then-write race.
func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	query := `
		INSERT INTO events (
			id, name, tagline, description, image, image_path,
			event_date, event_time, duration, mode, location, category, team_size,
			registration_deadline, deadline, registration_open,
			prizes, requirements, highlights, community_link, problem_statement,
			submission_type, drive_link, submission_deadline, max_file_size
		)
		SELECT COALESCE(MAX(id), 0) + 1,
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		FROM events
		RETURNING id
	`

	row := r.db.QueryRowContext(ctx, query,
		e.Name, e.Tagline, e.Description, e.Image, e.ImagePath,
		e.Date, e.Time, e.Duration, e.Mode, e.Location, e.Category, e.TeamSize,
		e.RegistrationDeadline, e.Deadline, e.RegistrationOpen,
		e.Prizes, e.Requirements, e.Highlights, e.CommunityLink, e.ProblemStatement,
		e.SubmissionType, e.DriveLink, e.SubmissionDeadline, e.MaxFileSize,
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

func (r *repository) UpdateEvent(ctx context.Context, e *model.Event) error {
	query := `
		UPDATE events SET
			name = $2, tagline = $3, description = $4, image = $5, image_path = $6,
			event_date = $7, event_time = $8, duration = $9, mode = $10,
			location = $11, category = $12, team_size = $13,
			registration_deadline = $14, deadline = $15, registration_open = $16,
			prizes = $17, requirements = $18, highlights = $19,
			community_link = $20, problem_statement = $21,
			submission_type = $22, drive_link = $23, submission_deadline = $24,
			max_file_size = $25, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.Name, e.Tagline, e.Description, e.Image, e.ImagePath,
		e.Date, e.Time, e.Duration, e.Mode, e.Location, e.Category, e.TeamSize,
		e.RegistrationDeadline, e.Deadline, e.RegistrationOpen,
		e.Prizes, e.Requirements, e.Highlights, e.CommunityLink, e.ProblemStatement,
		e.SubmissionType, e.DriveLink, e.SubmissionDeadline, e.MaxFileSize,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEvent removes only the event row. Registrations and submissions keep
// their denormalized event name and stay behind as orphans.
func (r *repository) DeleteEvent(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (r *repository) GetAllEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

const registrationColumns = `
	id, name, email, course, year, college, phone, event_id, event_name, registered_at
`

func scanRegistration(row interface{ Scan(...any) error }) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID, &reg.Name, &reg.Email, &reg.Course, &reg.Year, &reg.College,
		&reg.Phone, &reg.EventID, &reg.EventName, &reg.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *repository) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	query := `
		INSERT INTO registrations (id, name, email, course, year, college, phone, event_id, event_name, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		reg.ID, reg.Name, reg.Email, reg.Course, reg.Year, reg.College,
		reg.Phone, reg.EventID, reg.EventName, reg.RegisteredAt,
	)
	if err != nil {
		if uniqueViolationOn(err, "registrations_event_email_idx") {
			return ErrDuplicateRegistration
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *repository) GetRegistration(ctx context.Context, eventID int64, email string) (*model.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 AND email = $2`
	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, eventID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

func (r *repository) GetRegistrationsByEmail(ctx context.Context, email string) ([]model.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE email = $1 ORDER BY registered_at DESC`
	return r.queryRegistrations(ctx, query, email)
}

func (r *repository) GetAllRegistrations(ctx context.Context) ([]model.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations ORDER BY registered_at DESC`
	return r.queryRegistrations(ctx, query)
}

func (r *repository) queryRegistrations(ctx context.Context, query string, args ...any) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func (r *repository) DeleteRegistration(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// submissionColumns deliberately leaves out content; listings never carry
// file bytes. GetSubmissionByID is the only reader that loads them.
const submissionColumns = `
	id, event_id, event_name, user_email, user_name,
	file_name, file_path, file_size, file_type, submitted_at
`

func scanSubmission(row interface{ Scan(...any) error }) (*model.Submission, error) {
	var sub model.Submission
	err := row.Scan(
		&sub.ID, &sub.EventID, &sub.EventName, &sub.UserEmail, &sub.UserName,
		&sub.FileName, &sub.FilePath, &sub.FileSize, &sub.FileType, &sub.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	query := `
		INSERT INTO submissions (id, event_id, event_name, user_email, user_name, file_name, file_path, file_size, file_type, content, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.EventID, sub.EventName, sub.UserEmail, sub.UserName,
		sub.FileName, sub.FilePath, sub.FileSize, sub.FileType, sub.Content, sub.SubmittedAt,
	)
	if err != nil {
		if uniqueViolationOn(err, "submissions_event_email_idx") {
			return ErrDuplicateSubmission
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *repository) GetSubmission(ctx context.Context, eventID int64, email string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE event_id = $1 AND user_email = $2`
	sub, err := scanSubmission(r.db.QueryRowContext(ctx, query, eventID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

func (r *repository) GetSubmissionByID(ctx context.Context, id int64) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + `, content FROM submissions WHERE id = $1`
	var sub model.Submission
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.EventID, &sub.EventName, &sub.UserEmail, &sub.UserName,
		&sub.FileName, &sub.FilePath, &sub.FileSize, &sub.FileType, &sub.SubmittedAt,
		&sub.Content,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

func (r *repository) GetSubmissionsByEventID(ctx context.Context, eventID int64) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE event_id = $1 ORDER BY submitted_at DESC`
	return r.querySubmissions(ctx, query, eventID)
}

func (r *repository) GetAllSubmissions(ctx context.Context) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY submitted_at DESC`
	return r.querySubmissions(ctx, query)
}

func (r *repository) querySubmissions(ctx context.Context, query string, args ...any) ([]model.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (r *repository) DeleteSubmission(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (r *repository) IsAdmin(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM admins WHERE email = $1`, email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return true, nil
}

func (r *repository) ListAdmins(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT email FROM admins ORDER BY added_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	admins := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, email)
	}
	return admins, rows.Err()
}

func (r *repository) AddAdmin(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO admins (email, added_at) VALUES ($1, NOW())`, email)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAdmin
		}
		return fmt.Errorf("failed to add admin: %w", err)
	}
	return nil
}

func (r *repository) RemoveAdmin(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// GetRegistrationOpen defaults to open when the setting row has never been
// written.
func (r *repository) GetRegistrationOpen(ctx context.Context) (bool, error) {
	var value bool
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'registrationOpen'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read setting: %w", err)
	}
	return value, nil
}

func (r *repository) SetRegistrationOpen(ctx context.Context, open bool) error {
	query := `
		INSERT INTO settings (key, value) VALUES ('registrationOpen', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := r.db.ExecContext(ctx, query, open); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}
