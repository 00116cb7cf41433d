package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/model"
)

type CreateRegistrationRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Course  string `json:"course"`
	Year    string `json:"year"`
	College string `json:"college"`
	Phone   string `json:"phone"`
	EventID int64  `json:"eventId" validate:"required"`
}

// EventPayload is the full admin-editable field set. Admin forms always send
// an explicit structure, never a free-form map; unknown fields are dropped at
// bind time.
type EventPayload struct {
	Name                 string   `json:"name" validate:"required,max=100"`
	Tagline              string   `json:"tagline" validate:"max=200"`
	Description          string   `json:"description"`
	Image                string   `json:"image"`
	ImagePath            string   `json:"imagePath"`
	Date                 string   `json:"date"`
	Time                 string   `json:"time"`
	Duration             string   `json:"duration"`
	Mode                 string   `json:"mode" validate:"omitempty,eventmode"`
	Location             string   `json:"location"`
	Category             string   `json:"category"`
	TeamSize             string   `json:"teamSize"`
	RegistrationDeadline string   `json:"registrationDeadline"`
	Deadline             string   `json:"deadline" validate:"omitempty,isotime"`
	RegistrationOpen     *bool    `json:"registrationOpen"`
	Prizes               []string `json:"prizes"`
	Requirements         []string `json:"requirements"`
	Highlights           []string `json:"highlights"`
	CommunityLink        string   `json:"communityLink"`
	ProblemStatement     string   `json:"problemStatement"`
	SubmissionType       string   `json:"submissionType" validate:"omitempty,submissiontype"`
	DriveLink            string   `json:"driveLink"`
	SubmissionDeadline   string   `json:"submissionDeadline" validate:"omitempty,isotime"`
	MaxFileSize          int      `json:"maxFileSize" validate:"gte=0"`
}

type UpdateEventRequest struct {
	ID int64 `json:"id" validate:"required"`
	EventPayload
}

type AddAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdateSettingsRequest struct {
	RegistrationOpen *bool `json:"registrationOpen" validate:"required"`
}

// ConfirmationMessage is the payload published to the queue after a
// registration commits. It carries everything the notifier needs so the
// worker never goes back to the store.
type ConfirmationMessage struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	EventName     string `json:"eventName"`
	EventDate     string `json:"eventDate"`
	EventTime     string `json:"eventTime"`
	EventMode     string `json:"eventMode"`
	EventLocation string `json:"eventLocation"`
	CommunityLink string `json:"communityLink"`
}

type EventsResponse struct {
	Events []model.Event `json:"events"`
}

type EventResponse struct {
	Success bool         `json:"success,omitempty"`
	Event   *model.Event `json:"event"`
}

type RegistrationsResponse struct {
	Registrations []model.Registration `json:"registrations"`
}

type IsRegisteredResponse struct {
	IsRegistered bool `json:"isRegistered"`
}

type CreateRegistrationResponse struct {
	Success      bool                `json:"success"`
	Registration *model.Registration `json:"registration"`
}

type SubmissionsResponse struct {
	Submissions []model.Submission `json:"submissions"`
}

type SubmissionCheckResponse struct {
	HasSubmission bool              `json:"hasSubmission"`
	Submission    *model.Submission `json:"submission"`
}

type SubmissionCreatedResponse struct {
	Success    bool              `json:"success"`
	Submission SubmissionSummary `json:"submission"`
}

type SubmissionSummary struct {
	ID          int64     `json:"id"`
	FileName    string    `json:"fileName"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type AdminsResponse struct {
	Success bool     `json:"success,omitempty"`
	Admins  []string `json:"admins"`
}

type SettingsResponse struct {
	Success          bool `json:"success,omitempty"`
	RegistrationOpen bool `json:"registrationOpen"`
}

type UploadResponse struct {
	Success   bool   `json:"success"`
	ImagePath string `json:"imagePath"`
	Filename  string `json:"filename"`
}

type SuccessOnly struct {
	Success bool `json:"success"`
}

type ErrorBody struct {
	Error             string `json:"error"`
	AlreadyRegistered bool   `json:"alreadyRegistered,omitempty"`
}

func ErrorResponse(c *ginext.Context, status int, msg string) {
	c.JSON(status, ErrorBody{Error: msg})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, ErrorBody{Error: "Something went wrong. Please try again later."})
}

// AlreadyRegisteredResponse answers a duplicate registration. Clients treat
// the 409 with alreadyRegistered as an expected outcome, not a failure.
func AlreadyRegisteredResponse(c *ginext.Context) {
	c.JSON(409, ErrorBody{Error: "Already registered", AlreadyRegistered: true})
}
