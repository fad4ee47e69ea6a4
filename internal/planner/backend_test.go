package planner

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"eventplanner/internal/models"
)

// fakeBackend is an in-memory EventPlanner backend implementing the consumed
// REST surface, used to exercise the full client stack over real HTTP.
type fakeBackend struct {
	mu sync.Mutex

	nextID    int64
	users     map[int64]models.User
	passwords map[string]string
	emails    map[string]int64

	events    map[int64]*models.Event
	attendees map[int64][]*models.Attendee
	tasks     []*models.Task

	// searchCalls records the raw query values of every /search request.
	searchCalls []url.Values

	failLogin     bool
	failOrganized bool
	failInvited   bool

	server *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	b := &fakeBackend{
		users:     make(map[int64]models.User),
		passwords: make(map[string]string),
		emails:    make(map[string]int64),
		events:    make(map[int64]*models.Event),
		attendees: make(map[int64][]*models.Attendee),
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) setFailures(organized, invited bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failOrganized, b.failInvited = organized, invited
}

func (b *fakeBackend) setFailLogin(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failLogin = fail
}

func (b *fakeBackend) searchCallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.searchCalls)
}

func (b *fakeBackend) lastSearchCall() url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.searchCalls) == 0 {
		return nil
	}
	return b.searchCalls[len(b.searchCalls)-1]
}

func (b *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/signup":
		b.handleSignup(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/login":
		b.handleLogin(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/events":
		b.handleCreateEvent(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/events/organized":
		b.handleList(w, r, true)
	case r.Method == http.MethodGet && r.URL.Path == "/events/invited":
		b.handleList(w, r, false)
	case r.Method == http.MethodGet && r.URL.Path == "/search":
		b.handleSearch(w, r)
	case r.Method == http.MethodDelete && len(parts) == 2 && parts[0] == "events":
		b.handleDelete(w, r, mustID(parts[1]))
	case len(parts) == 3 && parts[0] == "events":
		eventID := mustID(parts[1])
		switch {
		case r.Method == http.MethodPost && parts[2] == "invite":
			b.handleInvite(w, r, eventID)
		case r.Method == http.MethodGet && parts[2] == "attendees":
			b.handleAttendees(w, eventID)
		case r.Method == http.MethodPut && parts[2] == "attendance":
			b.handleAttendance(w, r, eventID)
		case r.Method == http.MethodPost && parts[2] == "tasks":
			b.handleCreateTask(w, r, eventID)
		default:
			writeErr(w, http.StatusNotFound, "Not found")
		}
	default:
		writeErr(w, http.StatusNotFound, "Not found")
	}
}

func (b *fakeBackend) caller(r *http.Request) (models.User, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil {
		return models.User{}, false
	}
	user, found := b.users[id]
	return user, found
}

func (b *fakeBackend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct{ Name, Email, Password string }
	json.NewDecoder(r.Body).Decode(&req)
	if _, taken := b.emails[req.Email]; taken {
		writeErr(w, http.StatusBadRequest, "Email already registered")
		return
	}
	b.nextID++
	user := models.User{ID: b.nextID, Name: req.Name, Email: req.Email}
	b.users[user.ID] = user
	b.emails[user.Email] = user.ID
	b.passwords[user.Email] = req.Password
	writeJSON(w, models.AuthUser{ID: user.ID, Name: user.Name, Email: user.Email, Token: token(user.ID)})
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	if b.failLogin {
		writeErr(w, http.StatusServiceUnavailable, "Login service unavailable")
		return
	}
	var req struct{ Email, Password string }
	json.NewDecoder(r.Body).Decode(&req)
	id, found := b.emails[req.Email]
	if !found || b.passwords[req.Email] != req.Password {
		writeErr(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	user := b.users[id]
	writeJSON(w, models.AuthUser{ID: user.ID, Name: user.Name, Email: user.Email, Token: token(user.ID)})
}

func (b *fakeBackend) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	caller, logged := b.caller(r)
	if !logged {
		writeErr(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Location    string    `json:"location"`
		StartTime   time.Time `json:"startTime"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Title == "" {
		writeErr(w, http.StatusBadRequest, "Title is required")
		return
	}

	b.nextID++
	ev := &models.Event{
		ID:          b.nextID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		OrganizerID: caller.ID,
	}
	b.events[ev.ID] = ev
	// The creator is the organizer and implicit first attendee.
	b.attendees[ev.ID] = append(b.attendees[ev.ID], &models.Attendee{
		EventID:   ev.ID,
		UserID:    caller.ID,
		UserName:  caller.Name,
		UserEmail: caller.Email,
		Role:      models.RoleOrganizer,
	})
	writeJSON(w, ev)
}

func (b *fakeBackend) handleList(w http.ResponseWriter, r *http.Request, organized bool) {
	if organized && b.failOrganized {
		writeErr(w, http.StatusInternalServerError, "Organized list unavailable")
		return
	}
	if !organized && b.failInvited {
		writeErr(w, http.StatusInternalServerError, "Invited list unavailable")
		return
	}
	caller, logged := b.caller(r)
	if !logged {
		writeErr(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	out := []*models.Event{}
	for id, ev := range b.events {
		row := b.relation(id, caller.ID)
		if row == nil {
			continue
		}
		if organized == (row.Role == models.RoleOrganizer) {
			out = append(out, ev)
		}
	}
	writeJSON(w, out)
}

func (b *fakeBackend) handleDelete(w http.ResponseWriter, r *http.Request, eventID int64) {
	caller, logged := b.caller(r)
	if !logged {
		writeErr(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	ev, found := b.events[eventID]
	if !found {
		writeErr(w, http.StatusNotFound, "Event not found")
		return
	}
	row := b.relation(eventID, caller.ID)
	if row == nil || row.Role != models.RoleOrganizer {
		writeErr(w, http.StatusForbidden, "Only the organizer can delete this event")
		return
	}
	delete(b.events, ev.ID)
	delete(b.attendees, ev.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *fakeBackend) handleInvite(w http.ResponseWriter, r *http.Request, eventID int64) {
	caller, logged := b.caller(r)
	if !logged {
		writeErr(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if _, found := b.events[eventID]; !found {
		writeErr(w, http.StatusNotFound, "Event not found")
		return
	}
	row := b.relation(eventID, caller.ID)
	if row == nil || row.Role != models.RoleOrganizer {
		writeErr(w, http.StatusForbidden, "Only an organizer can invite users")
		return
	}

	var req struct {
		UserID int64       `json:"userId"`
		Role   models.Role `json:"role"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	invited, found := b.users[req.UserID]
	if !found {
		writeErr(w, http.StatusNotFound, "User not found")
		return
	}
	if b.relation(eventID, req.UserID) != nil {
		writeErr(w, http.StatusConflict, "User already invited")
		return
	}
	if !req.Role.Valid() {
		writeErr(w, http.StatusBadRequest, "Invalid role")
		return
	}

	att := &models.Attendee{
		EventID:   eventID,
		UserID:    invited.ID,
		UserName:  invited.Name,
		UserEmail: invited.Email,
		Role:      req.Role,
	}
	b.attendees[eventID] = append(b.attendees[eventID], att)
	writeJSON(w, att)
}

func (b *fakeBackend) handleAttendees(w http.ResponseWriter, eventID int64) {
	if _, found := b.events[eventID]; !found {
		writeErr(w, http.StatusNotFound, "Event not found")
		return
	}
	writeJSON(w, b.attendees[eventID])
}

func (b *fakeBackend) handleAttendance(w http.ResponseWriter, r *http.Request, eventID int64) {
	if _, found := b.events[eventID]; !found {
		writeErr(w, http.StatusNotFound, "Event not found")
		return
	}
	var req struct {
		UserID int64                   `json:"userId"`
		Status models.AttendanceStatus `json:"status"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if !req.Status.ValidResponse() {
		writeErr(w, http.StatusBadRequest, "Invalid attendance status")
		return
	}
	row := b.relation(eventID, req.UserID)
	if row == nil {
		writeErr(w, http.StatusNotFound, "You are not invited to this event")
		return
	}
	row.Attendance = req.Status
	writeJSON(w, row)
}

func (b *fakeBackend) handleCreateTask(w http.ResponseWriter, r *http.Request, eventID int64) {
	ev, found := b.events[eventID]
	if !found {
		writeErr(w, http.StatusNotFound, "Event not found")
		return
	}
	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"dueDate"`
		AssigneeID  *int64     `json:"assigneeId"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Title == "" {
		writeErr(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.AssigneeID != nil && b.relation(ev.ID, *req.AssigneeID) == nil {
		writeErr(w, http.StatusBadRequest, "Assignee is not a collaborator on this event")
		return
	}

	b.nextID++
	task := &models.Task{
		ID:          b.nextID,
		EventID:     ev.ID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
		Status:      "open",
	}
	b.tasks = append(b.tasks, task)
	writeJSON(w, task)
}

func (b *fakeBackend) handleSearch(w http.ResponseWriter, r *http.Request) {
	caller, logged := b.caller(r)
	if !logged {
		writeErr(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	query := r.URL.Query()
	b.searchCalls = append(b.searchCalls, query)

	q := strings.ToLower(query.Get("q"))
	from, hasFrom := parseDate(query.Get("from"))
	to, hasTo := parseDate(query.Get("to"))
	role := models.Role(query.Get("role"))

	results := models.SearchResults{Events: []models.Event{}, Tasks: []models.Task{}}
	for id, ev := range b.events {
		row := b.relation(id, caller.ID)
		if row == nil {
			continue
		}
		if !matches(q, ev.Title, ev.Description) {
			continue
		}
		// Date bounds are inclusive on both ends.
		if hasFrom && ev.StartTime.Before(from) {
			continue
		}
		if hasTo && !ev.StartTime.Before(to.Add(24*time.Hour)) {
			continue
		}
		if role != "" && row.Role != role {
			continue
		}
		results.Events = append(results.Events, *ev)
	}
	for _, task := range b.tasks {
		ev, found := b.events[task.EventID]
		if !found || b.relation(task.EventID, caller.ID) == nil {
			continue
		}
		if !matches(q, task.Title, task.Description) {
			continue
		}
		withTitle := *task
		withTitle.EventTitle = ev.Title
		results.Tasks = append(results.Tasks, withTitle)
	}
	writeJSON(w, results)
}

func (b *fakeBackend) relation(eventID, userID int64) *models.Attendee {
	for _, att := range b.attendees[eventID] {
		if att.UserID == userID {
			return att
		}
	}
	return nil
}

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func mustID(raw string) int64 {
	id, _ := strconv.ParseInt(raw, 10, 64)
	return id
}

func token(userID int64) string {
	return "token-" + strconv.FormatInt(userID, 10)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
