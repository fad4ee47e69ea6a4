// Package api wraps the EventPlanner backend behind typed operations. Every
// call resolves to a Result: callers branch on Success and never see a raw
// transport error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"eventplanner/internal/models"
)

// Result is the uniform outcome of one backend call: either Data or Error is
// meaningful, depending on Success.
type Result[T any] struct {
	Success bool
	Data    T
	Error   string
}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func fail[T any](msg string) Result[T] {
	return Result[T]{Error: msg}
}

// SessionReader supplies the identity attached to outgoing requests.
type SessionReader interface {
	Current() (models.User, bool)
	Token() string
}

// transport decorates every request with the caller's identity and a request
// id. Without a session the identity headers are simply omitted; the backend
// rejects unauthenticated calls to protected routes.
type transport struct {
	session SessionReader
	base    http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if user, logged := t.session.Current(); logged {
		req.Header.Set("X-User-ID", strconv.FormatInt(user.ID, 10))
	}
	if token := t.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("User-Agent", "eventplanner/1.0")
	return t.base.RoundTrip(req)
}

// Client is the API gateway to the EventPlanner backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the backend at baseURL. The session is read
// by reference on every request, so a login or logout takes effect on the
// next call without rebuilding the client.
func NewClient(logger *slog.Logger, baseURL string, session SessionReader) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &transport{session: session, base: http.DefaultTransport},
		},
		logger: logger,
	}
}

// call performs a single attempt against the backend and normalizes every
// failure mode into the Result's error branch. Error messages prefer the
// server's reason and fall back to the per-operation default. No retries, no
// timeout beyond the caller's context.
func call[T any](ctx context.Context, c *Client, method, path string, body any, fallback string) Result[T] {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			c.logger.Debug("Failed to encode request body", "method", method, "path", path, "error", err)
			return fail[T](fallback)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fail[T](fallback)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Request failed", "method", method, "path", path, "error", err)
		return fail[T](fallback)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Debug("Failed to read response", "method", method, "path", path, "error", err)
		return fail[T](fallback)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fail[T](serverError(raw, fallback))
	}

	var data T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			c.logger.Debug("Failed to decode response", "method", method, "path", path, "error", err)
			return fail[T](fallback)
		}
	}
	return ok(data)
}

// serverError extracts the backend's reason from an error payload, falling
// back to the operation default when the body carries none.
func serverError(raw []byte, fallback string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fallback
}

// Signup registers a new account. It does not establish a session.
func (c *Client) Signup(ctx context.Context, name, email, password string) Result[models.AuthUser] {
	body := map[string]string{"name": name, "email": email, "password": password}
	return call[models.AuthUser](ctx, c, http.MethodPost, "/signup", body, "Signup failed")
}

// Login exchanges credentials for the user record and a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) Result[models.AuthUser] {
	body := map[string]string{"email": email, "password": password}
	return call[models.AuthUser](ctx, c, http.MethodPost, "/login", body, "Login failed")
}

// CreateEvent creates an event owned by the current user.
func (c *Client) CreateEvent(ctx context.Context, p models.CreateEventParams) Result[models.Event] {
	body := map[string]any{
		"title":       p.Title,
		"description": p.Description,
		"location":    p.Location,
		"startTime":   p.StartTime,
	}
	return call[models.Event](ctx, c, http.MethodPost, "/events", body, "Failed to create event")
}

// OrganizedEvents lists events where the current user is an organizer.
func (c *Client) OrganizedEvents(ctx context.Context) Result[[]models.Event] {
	return call[[]models.Event](ctx, c, http.MethodGet, "/events/organized", nil, "Failed to fetch organized events")
}

// InvitedEvents lists events where the current user holds a non-organizer
// collaborator relation.
func (c *Client) InvitedEvents(ctx context.Context) Result[[]models.Event] {
	return call[[]models.Event](ctx, c, http.MethodGet, "/events/invited", nil, "Failed to fetch invited events")
}

// DeleteEvent removes an event. Organizer-only, enforced by the backend.
func (c *Client) DeleteEvent(ctx context.Context, eventID int64) Result[struct{}] {
	path := fmt.Sprintf("/events/%d", eventID)
	return call[struct{}](ctx, c, http.MethodDelete, path, nil, "Failed to delete event")
}

// Invite adds a collaborator relation to an event. A duplicate invite for the
// same (event, user) pair is a backend error, not deduplicated here.
func (c *Client) Invite(ctx context.Context, eventID, userID int64, role models.Role) Result[models.Attendee] {
	path := fmt.Sprintf("/events/%d/invite", eventID)
	body := map[string]any{"userId": userID, "role": role}
	return call[models.Attendee](ctx, c, http.MethodPost, path, body, "Failed to invite user")
}

// Attendees returns the full roster for an event.
func (c *Client) Attendees(ctx context.Context, eventID int64) Result[[]models.Attendee] {
	path := fmt.Sprintf("/events/%d/attendees", eventID)
	return call[[]models.Attendee](ctx, c, http.MethodGet, path, nil, "Failed to fetch attendees")
}

// SetAttendance records userID's RSVP on an event. Users may only set their
// own; the backend enforces that the relation exists.
func (c *Client) SetAttendance(ctx context.Context, eventID, userID int64, status models.AttendanceStatus) Result[models.Attendee] {
	path := fmt.Sprintf("/events/%d/attendance", eventID)
	body := map[string]any{"userId": userID, "status": status}
	return call[models.Attendee](ctx, c, http.MethodPut, path, body, "Failed to update attendance")
}

// CreateTask attaches a task to an event.
func (c *Client) CreateTask(ctx context.Context, p models.CreateTaskParams) Result[models.Task] {
	path := fmt.Sprintf("/events/%d/tasks", p.EventID)
	body := map[string]any{
		"title":       p.Title,
		"description": p.Description,
		"dueDate":     p.DueDate,
		"assigneeId":  p.AssigneeID,
	}
	return call[models.Task](ctx, c, http.MethodPost, path, body, "Failed to create task")
}

// Search runs one federated query over events and tasks. Absent filters are
// omitted from the query string entirely.
func (c *Client) Search(ctx context.Context, query string, f models.SearchFilters) Result[models.SearchResults] {
	params := url.Values{}
	params.Set("q", query)
	if f.From != "" {
		params.Set("from", f.From)
	}
	if f.To != "" {
		params.Set("to", f.To)
	}
	if f.Role != "" {
		params.Set("role", string(f.Role))
	}
	return call[models.SearchResults](ctx, c, http.MethodGet, "/search?"+params.Encode(), nil, "Search failed")
}
