// Package publish pushes organized events to a personal CalDAV calendar so
// they show up next to the user's other calendars.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"eventplanner/internal/export"
	"eventplanner/internal/models"
)

// basicAuthTransport adds Basic Auth and a client identifier to every
// request against the CalDAV server.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "eventplanner/1.0")
	return t.Transport.RoundTrip(req)
}

// Client publishes events into one calendar on a CalDAV server.
type Client struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	endpoint     string
	calendarPath string
}

// NewClient connects to the CalDAV endpoint and locates the calendar with
// the given display name.
func NewClient(logger *slog.Logger, endpoint, username, password, calendarName string) (*Client, error) {
	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			Username:  username,
			Password:  password,
			Transport: http.DefaultTransport,
		},
	}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	c := &Client{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		endpoint:     strings.TrimSuffix(endpoint, "/"),
	}

	logger.Info("Finding CalDAV calendar.", "calendarName", calendarName)
	calendarPath, err := c.findCalendar(context.Background(), calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Found CalDAV calendar.", "path", calendarPath)

	return c, nil
}

// PublishEvent writes one event as an .ics resource in the calendar,
// creating or replacing it by UID.
func (c *Client) PublishEvent(ctx context.Context, ev models.Event) error {
	c.logger.Debug("Publishing event to CalDAV.", "eventTitle", ev.Title, "eventId", ev.ID)

	resourcePath := path.Join(c.calendarPath, fmt.Sprintf("%s.ics", export.EventUID(ev)))
	writer, err := c.webdavClient.Create(ctx, resourcePath)
	if err != nil {
		return fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}
	defer writer.Close()

	if err := ical.NewEncoder(writer).Encode(export.Calendar([]models.Event{ev})); err != nil {
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}

	c.logger.Info("Published event to CalDAV.", "eventTitle", ev.Title)
	return nil
}

// PublishAll publishes each event, continuing past individual failures and
// reporting how many could not be written.
func (c *Client) PublishAll(ctx context.Context, events []models.Event) error {
	var failed int
	for _, ev := range events {
		if err := c.PublishEvent(ctx, ev); err != nil {
			c.logger.Error("Failed to publish event", "title", ev.Title, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d events failed to publish", failed, len(events))
	}
	return nil
}

// findCalendar walks principal → calendar home set → calendars and returns
// the path of the one with the matching display name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
