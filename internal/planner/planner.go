// Package planner coordinates the event, roster, attendance, task, and
// search workflows on top of the API client. It owns one last-fetched
// snapshot per view and follows a single consistency rule: after every
// successful mutation the affected list is reloaded wholesale, never patched
// field by field.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"eventplanner/internal/api"
	"eventplanner/internal/models"
	"eventplanner/internal/session"
)

var (
	// ErrNotLoggedIn is returned by operations that need an active session.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrLoginAfterSignup reports that the account was created but the
	// follow-up login failed. The account exists; the user should log in
	// manually instead of signing up again.
	ErrLoginAfterSignup = errors.New("account created, but automatic login failed; please log in")

	// ErrEmptySearch rejects blank queries before any request is issued.
	ErrEmptySearch = errors.New("please enter a search query")
)

// EventLists is the organized/invited dual view. The two branches are
// fetched concurrently and fail independently; each carries its own error.
type EventLists struct {
	Organized    []models.Event
	Invited      []models.Event
	OrganizedErr error
	InvitedErr   error
}

// Planner is the client-side coordination layer.
type Planner struct {
	logger  *slog.Logger
	api     *api.Client
	session *session.Store

	organized []models.Event
	invited   []models.Event

	rosterEventID int64
	roster        []models.Attendee

	results       *models.SearchResults
	searchQuery   string
	searchFilters models.SearchFilters
}

// New creates a Planner. The session store is shared with the API client's
// transport; the planner never owns it.
func New(logger *slog.Logger, client *api.Client, store *session.Store) *Planner {
	return &Planner{logger: logger, api: client, session: store}
}

// SignUp creates an account and immediately logs in with the same
// credentials. A login failure after a successful signup is reported as
// ErrLoginAfterSignup so the caller can retry login without re-signing-up.
func (p *Planner) SignUp(ctx context.Context, params models.SignupParams) (models.User, error) {
	if err := params.Validate(); err != nil {
		return models.User{}, err
	}

	res := p.api.Signup(ctx, params.Name, params.Email, params.Password)
	if !res.Success {
		return models.User{}, errors.New(res.Error)
	}

	user, err := p.LogIn(ctx, params.Email, params.Password)
	if err != nil {
		p.logger.Warn("Signup succeeded but login failed.", "email", params.Email, "error", err)
		return models.User{}, ErrLoginAfterSignup
	}
	return user, nil
}

// LogIn authenticates and persists the session for subsequent calls.
func (p *Planner) LogIn(ctx context.Context, email, password string) (models.User, error) {
	res := p.api.Login(ctx, email, password)
	if !res.Success {
		return models.User{}, errors.New(res.Error)
	}

	user := models.User{ID: res.Data.ID, Name: res.Data.Name, Email: res.Data.Email}
	if err := p.session.Establish(user, res.Data.Token); err != nil {
		return models.User{}, fmt.Errorf("failed to persist session: %w", err)
	}
	p.logger.Info("Logged in.", "user", user.Email)
	return user, nil
}

// LogOut clears the session and every snapshot. Purely local.
func (p *Planner) LogOut() error {
	p.organized, p.invited, p.roster, p.results = nil, nil, nil, nil
	p.searchQuery, p.searchFilters = "", models.SearchFilters{}
	return p.session.Clear()
}

// CurrentUser returns the active user, if any.
func (p *Planner) CurrentUser() (models.User, bool) {
	return p.session.Current()
}

// LoadEvents fetches the organized and invited views concurrently and joins
// when both settle. A failure in one branch does not cancel or hide the
// other; successful branches replace their snapshot, failed ones keep the
// previous one.
func (p *Planner) LoadEvents(ctx context.Context) EventLists {
	var lists EventLists
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		res := p.api.OrganizedEvents(ctx)
		if res.Success {
			lists.Organized = res.Data
		} else {
			lists.OrganizedErr = errors.New(res.Error)
		}
	}()
	go func() {
		defer wg.Done()
		res := p.api.InvitedEvents(ctx)
		if res.Success {
			lists.Invited = res.Data
		} else {
			lists.InvitedErr = errors.New(res.Error)
		}
	}()
	wg.Wait()

	if lists.OrganizedErr == nil {
		p.organized = lists.Organized
	} else {
		lists.Organized = p.organized
	}
	if lists.InvitedErr == nil {
		p.invited = lists.Invited
	} else {
		lists.Invited = p.invited
	}
	return lists
}

// CreateEvent creates an event; the caller becomes its organizer and
// implicit first attendee on the backend.
func (p *Planner) CreateEvent(ctx context.Context, params models.CreateEventParams) (models.Event, error) {
	if err := params.Validate(); err != nil {
		return models.Event{}, err
	}
	res := p.api.CreateEvent(ctx, params)
	if !res.Success {
		return models.Event{}, errors.New(res.Error)
	}
	return res.Data, nil
}

// DeleteEvent removes an event and reloads both event lists. Authorization
// is the backend's call; a non-organizer gets its error back verbatim.
func (p *Planner) DeleteEvent(ctx context.Context, eventID int64) (EventLists, error) {
	res := p.api.DeleteEvent(ctx, eventID)
	if !res.Success {
		return p.snapshotLists(), errors.New(res.Error)
	}
	return p.LoadEvents(ctx), nil
}

// Invite adds a collaborator and reloads the roster. Duplicate invites are a
// backend error, surfaced as-is.
func (p *Planner) Invite(ctx context.Context, params models.InviteParams) ([]models.Attendee, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	res := p.api.Invite(ctx, params.EventID, params.UserID, params.Role)
	if !res.Success {
		return nil, errors.New(res.Error)
	}
	return p.LoadRoster(ctx, params.EventID)
}

// LoadRoster fetches the full attendee list for an event and replaces the
// roster snapshot.
func (p *Planner) LoadRoster(ctx context.Context, eventID int64) ([]models.Attendee, error) {
	res := p.api.Attendees(ctx, eventID)
	if !res.Success {
		return nil, errors.New(res.Error)
	}
	p.rosterEventID = eventID
	p.roster = res.Data
	return res.Data, nil
}

// SetAttendance records the current user's RSVP on an event. Any of the
// three responses may follow any prior state, and repeating one is
// idempotent. The local snapshots reflect the new status immediately, then
// the authoritative lists are re-fetched so a stale optimistic value is
// corrected within one round trip.
func (p *Planner) SetAttendance(ctx context.Context, eventID int64, status models.AttendanceStatus) (EventLists, error) {
	user, logged := p.session.Current()
	if !logged {
		return p.snapshotLists(), ErrNotLoggedIn
	}
	if !status.ValidResponse() {
		return p.snapshotLists(), fmt.Errorf("invalid attendance status %q", status)
	}

	res := p.api.SetAttendance(ctx, eventID, user.ID, status)
	if !res.Success {
		return p.snapshotLists(), errors.New(res.Error)
	}

	p.applyAttendance(eventID, user.ID, status)
	return p.LoadEvents(ctx), nil
}

// Search runs one federated query. Blank queries are rejected locally and
// never reach the network. On success the query and filters are kept as the
// snapshot that produced the current results.
func (p *Planner) Search(ctx context.Context, query string, filters models.SearchFilters) (models.SearchResults, error) {
	if strings.TrimSpace(query) == "" {
		return models.SearchResults{}, ErrEmptySearch
	}
	if err := filters.Validate(); err != nil {
		return models.SearchResults{}, err
	}

	res := p.api.Search(ctx, query, filters)
	if !res.Success {
		return models.SearchResults{}, errors.New(res.Error)
	}

	p.results = &res.Data
	p.searchQuery = query
	p.searchFilters = filters
	return res.Data, nil
}

// SetSearchAttendance is SetAttendance for a row in the current search
// results. After the update it re-issues the exact query and filter snapshot
// that produced the displayed results, so they reflect the change. A failed
// refresh keeps the optimistic view; the next search corrects it.
func (p *Planner) SetSearchAttendance(ctx context.Context, eventID int64, status models.AttendanceStatus) (models.SearchResults, error) {
	user, logged := p.session.Current()
	if !logged {
		return p.snapshotResults(), ErrNotLoggedIn
	}
	if p.results == nil {
		return models.SearchResults{}, fmt.Errorf("no search results to update")
	}
	if !status.ValidResponse() {
		return p.snapshotResults(), fmt.Errorf("invalid attendance status %q", status)
	}

	res := p.api.SetAttendance(ctx, eventID, user.ID, status)
	if !res.Success {
		return p.snapshotResults(), errors.New(res.Error)
	}
	p.applyAttendance(eventID, user.ID, status)

	refreshed := p.api.Search(ctx, p.searchQuery, p.searchFilters)
	if refreshed.Success {
		p.results = &refreshed.Data
	} else {
		p.logger.Warn("Failed to refresh search results after attendance update.", "error", refreshed.Error)
	}
	return p.snapshotResults(), nil
}

// CreateTask attaches a task to an event. Assignee validity is the backend's
// responsibility.
func (p *Planner) CreateTask(ctx context.Context, params models.CreateTaskParams) (models.Task, error) {
	if err := params.Validate(); err != nil {
		return models.Task{}, err
	}
	res := p.api.CreateTask(ctx, params)
	if !res.Success {
		return models.Task{}, errors.New(res.Error)
	}
	return res.Data, nil
}

// applyAttendance is the optimistic half of an attendance update: it rewrites
// the matching roster row in place. The authoritative re-fetch that follows
// replaces the snapshot wholesale.
func (p *Planner) applyAttendance(eventID, userID int64, status models.AttendanceStatus) {
	if p.rosterEventID != eventID {
		return
	}
	for i := range p.roster {
		if p.roster[i].UserID == userID {
			p.roster[i].Attendance = status
		}
	}
}

func (p *Planner) snapshotLists() EventLists {
	return EventLists{Organized: p.organized, Invited: p.invited}
}

func (p *Planner) snapshotResults() models.SearchResults {
	if p.results == nil {
		return models.SearchResults{}
	}
	return *p.results
}
