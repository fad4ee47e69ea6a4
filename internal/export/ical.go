// Package export renders fetched events as an iCalendar document, for
// importing into an external calendar app or publishing over CalDAV.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"eventplanner/internal/models"
)

// EventUID derives a stable iCalendar UID from the event id so repeated
// exports update an entry instead of duplicating it. An event without an id
// gets a random UID.
func EventUID(ev models.Event) string {
	if ev.ID == 0 {
		return uuid.New().String()
	}
	return fmt.Sprintf("event-%d@eventplanner", ev.ID)
}

// Calendar builds a VCALENDAR holding one VEVENT per event.
func Calendar(events []models.Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//eventplanner//EN")
	for _, ev := range events {
		cal.Children = append(cal.Children, component(ev))
	}
	return cal
}

// Write encodes the events as iCalendar onto w.
func Write(w io.Writer, events []models.Event) error {
	if err := ical.NewEncoder(w).Encode(Calendar(events)); err != nil {
		return fmt.Errorf("failed to encode events to iCal format: %w", err)
	}
	return nil
}

// component converts one event to a VEVENT. The backend tracks no end time,
// so the entry blocks out an hour to stay visible in calendar views.
func component(ev models.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, EventUID(ev))
	ve.Props.SetText(ical.PropSummary, ev.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, ev.StartTime)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.StartTime.Add(time.Hour))

	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}
	return ve
}
