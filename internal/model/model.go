package model

import (
	"time"

	"github.com/lib/pq"
)

const (
	ModeOnline  = "Online"
	ModeOffline = "Offline"
	ModeHybrid  = "Hybrid"

	SubmissionNone  = "none"
	SubmissionFile  = "file"
	SubmissionDrive = "drive"
	SubmissionBoth  = "both"
)

// DefaultMaxFileSizeMB is applied when an event does not configure its own
// submission size limit.
const DefaultMaxFileSizeMB = 10

type Event struct {
	ID                   int64          `db:"id" json:"id"`
	Name                 string         `db:"name" json:"name"`
	Tagline              string         `db:"tagline" json:"tagline,omitempty"`
	Description          string         `db:"description" json:"description"`
	Image                string         `db:"image" json:"image,omitempty"`
	ImagePath            string         `db:"image_path" json:"imagePath,omitempty"`
	Date                 string         `db:"event_date" json:"date"`
	Time                 string         `db:"event_time" json:"time"`
	Duration             string         `db:"duration" json:"duration,omitempty"`
	Mode                 string         `db:"mode" json:"mode"`
	Location             string         `db:"location" json:"location,omitempty"`
	Category             string         `db:"category" json:"category,omitempty"`
	TeamSize             string         `db:"team_size" json:"teamSize,omitempty"`
	RegistrationDeadline string         `db:"registration_deadline" json:"registrationDeadline,omitempty"`
	Deadline             string         `db:"deadline" json:"deadline"`
	RegistrationOpen     bool           `db:"registration_open" json:"registrationOpen"`
	Prizes               pq.StringArray `db:"prizes" json:"prizes"`
	Requirements         pq.StringArray `db:"requirements" json:"requirements"`
	Highlights           pq.StringArray `db:"highlights" json:"highlights"`
	CommunityLink        string         `db:"community_link" json:"communityLink,omitempty"`
	ProblemStatement     string         `db:"problem_statement" json:"problemStatement,omitempty"`
	SubmissionType       string         `db:"submission_type" json:"submissionType"`
	DriveLink            string         `db:"drive_link" json:"driveLink,omitempty"`
	SubmissionDeadline   string         `db:"submission_deadline" json:"submissionDeadline"`
	MaxFileSize          int            `db:"max_file_size" json:"maxFileSize"`
	CreatedAt            time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updatedAt"`
}

// Registration id doubles as the delete key and is the creation timestamp in
// unix milliseconds. eventName is a snapshot of the event's name at
// registration time and is never synced with later renames.
type Registration struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Course       string    `db:"course" json:"course"`
	Year         string    `db:"year" json:"year"`
	College      string    `db:"college" json:"college"`
	Phone        string    `db:"phone" json:"phone"`
	EventID      int64     `db:"event_id" json:"eventId"`
	EventName    string    `db:"event_name" json:"eventName"`
	RegisteredAt time.Time `db:"registered_at" json:"registeredAt"`
}

type Submission struct {
	ID          int64     `db:"id" json:"id"`
	EventID     int64     `db:"event_id" json:"eventId"`
	EventName   string    `db:"event_name" json:"eventName"`
	UserEmail   string    `db:"user_email" json:"userEmail"`
	UserName    string    `db:"user_name" json:"userName"`
	FileName    string    `db:"file_name" json:"fileName"`
	FilePath    string    `db:"file_path" json:"filePath"`
	FileSize    int64     `db:"file_size" json:"fileSize"`
	FileType    string    `db:"file_type" json:"fileType"`
	Content     []byte    `db:"content" json:"-"`
	SubmittedAt time.Time `db:"submitted_at" json:"submittedAt"`
}
