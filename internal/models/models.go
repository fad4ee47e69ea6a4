package models

import "time"

// Role is a collaborator's role on an event, fixed at invite time.
type Role string

const (
	RoleOrganizer    Role = "organizer"
	RoleAttendee     Role = "attendee"
	RoleCollaborator Role = "collaborator"
)

// Valid reports whether r is one of the three recognized roles.
func (r Role) Valid() bool {
	return r == RoleOrganizer || r == RoleAttendee || r == RoleCollaborator
}

// AttendanceStatus is a collaborator's RSVP on a single event.
type AttendanceStatus string

const (
	AttendancePending  AttendanceStatus = "pending"
	AttendanceGoing    AttendanceStatus = "going"
	AttendanceMaybe    AttendanceStatus = "maybe"
	AttendanceNotGoing AttendanceStatus = "not_going"
)

// ValidResponse reports whether s is a status a user may set explicitly.
// Pending is never sent; it only exists as the absence of a response.
func (s AttendanceStatus) ValidResponse() bool {
	return s == AttendanceGoing || s == AttendanceMaybe || s == AttendanceNotGoing
}

// User is a registered account as the backend reports it.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthUser is the signup/login response: the user plus a bearer token.
type AuthUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// Event is an organized gathering. It has exactly one owning organizer;
// further organizers join through invites carrying the organizer role.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"startTime"`
	OrganizerID int64     `json:"organizerId"`
}

// Attendee is one (event, user) collaborator relation from the roster.
type Attendee struct {
	EventID    int64            `json:"eventId"`
	UserID     int64            `json:"userId"`
	UserName   string           `json:"userName"`
	UserEmail  string           `json:"userEmail"`
	Role       Role             `json:"role"`
	Attendance AttendanceStatus `json:"attendance,omitempty"`
}

// Status returns the attendance, treating the backend's null/absent value as
// pending.
func (a Attendee) Status() AttendanceStatus {
	if a.Attendance == "" {
		return AttendancePending
	}
	return a.Attendance
}

// Task belongs to exactly one event and may be assigned to one of its
// collaborators. EventTitle is denormalized by the backend for search results
// and empty elsewhere.
type Task struct {
	ID          int64      `json:"id"`
	EventID     int64      `json:"eventId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *int64     `json:"assigneeId"`
	Status      string     `json:"status"`
	EventTitle  string     `json:"eventTitle,omitempty"`
}

// SearchResults is the heterogeneous result of one federated query.
type SearchResults struct {
	Events []Event `json:"events"`
	Tasks  []Task  `json:"tasks"`
}
