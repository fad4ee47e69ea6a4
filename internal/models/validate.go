package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// layoutLocal matches what a datetime picker produces, seconds omitted.
const layoutLocal = "2006-01-02T15:04"

// SignupParams is the validated input for creating an account.
type SignupParams struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// Validate checks the fields locally, before any network call.
func (p SignupParams) Validate() error {
	if p.Password != p.ConfirmPassword {
		return fmt.Errorf("passwords don't match")
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid signup details: %w", err)
	}
	return nil
}

// CreateEventParams is the validated input for creating an event. The start
// time is required explicitly; there is no implicit "now" default.
type CreateEventParams struct {
	Title       string    `validate:"required"`
	Description string
	Location    string
	StartTime   time.Time `validate:"required"`
}

func (p CreateEventParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid event details: %w", err)
	}
	return nil
}

// InviteParams is the validated input for inviting a user to an event.
type InviteParams struct {
	EventID int64 `validate:"required"`
	UserID  int64 `validate:"required,min=1"`
	Role    Role  `validate:"required,oneof=organizer attendee collaborator"`
}

func (p InviteParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid invite: %w", err)
	}
	return nil
}

// CreateTaskParams is the validated input for attaching a task to an event.
// A nil DueDate means "no due date", which is distinct from an invalid one:
// invalid input never reaches this struct (see ParseTime).
type CreateTaskParams struct {
	EventID     int64  `validate:"required"`
	Title       string `validate:"required"`
	Description string
	DueDate     *time.Time
	AssigneeID  *int64
}

func (p CreateTaskParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid task details: %w", err)
	}
	return nil
}

// SearchFilters are the recognized search options. Empty fields are omitted
// from the request entirely rather than sent as empty values. From and To are
// plain dates; the backend applies them as inclusive bounds on startTime.
type SearchFilters struct {
	From string `validate:"omitempty,datetime=2006-01-02"`
	To   string `validate:"omitempty,datetime=2006-01-02"`
	Role Role   `validate:"omitempty,oneof=organizer attendee collaborator"`
}

func (f SearchFilters) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid search filters: %w", err)
	}
	return nil
}

// ParseTime parses a timestamp typed by the user, accepting RFC 3339 or the
// shorter local form, and normalizes it to UTC.
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutLocal} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q, use YYYY-MM-DDTHH:MM or RFC 3339", raw)
}

// ParseDueDate is ParseTime for an optional value: empty input means no due
// date rather than an error.
func ParseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := ParseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
