package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"eventplanner/internal/export"
	"eventplanner/internal/models"
	"eventplanner/internal/publish"
)

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List your organized and invited events.",
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}

			lists := a.planner.LoadEvents(c.Context)

			fmt.Printf("Organized (%d)\n", len(lists.Organized))
			if lists.OrganizedErr != nil {
				fmt.Printf("  error: %v\n", lists.OrganizedErr)
			} else if len(lists.Organized) == 0 {
				fmt.Println("  No organized events yet. Create your first event!")
			} else {
				printEvents(lists.Organized)
			}

			fmt.Printf("Invited (%d)\n", len(lists.Invited))
			if lists.InvitedErr != nil {
				fmt.Printf("  error: %v\n", lists.InvitedErr)
			} else if len(lists.Invited) == 0 {
				fmt.Println("  No invitations yet.")
			} else {
				printEvents(lists.Invited)
			}
			return nil
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a new event with you as the organizer.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Event title.", Required: true},
			&cli.StringFlag{Name: "description", Usage: "Event description."},
			&cli.StringFlag{Name: "location", Usage: "Event location."},
			&cli.StringFlag{Name: "start", Usage: "Start time (YYYY-MM-DDTHH:MM or RFC 3339).", Required: true},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}

			startTime, err := models.ParseTime(c.String("start"))
			if err != nil {
				return err
			}

			event, err := a.planner.CreateEvent(c.Context, models.CreateEventParams{
				Title:       c.String("title"),
				Description: c.String("description"),
				Location:    c.String("location"),
				StartTime:   startTime,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created event [%d] %s\n", event.ID, event.Title)
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an event you organize.",
		ArgsUsage: "EVENT_ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "Skip the confirmation prompt."},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}
			eventID, err := eventIDArg(c)
			if err != nil {
				return err
			}

			if !c.Bool("yes") {
				answer := prompt("Are you sure you want to delete this event? (y/N): ")
				if !strings.EqualFold(answer, "y") {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			if _, err := a.planner.DeleteEvent(c.Context, eventID); err != nil {
				return err
			}
			fmt.Println("Event deleted.")
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show the attendee roster for an event.",
		ArgsUsage: "EVENT_ID",
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			user, err := a.requireLogin()
			if err != nil {
				return err
			}
			eventID, err := eventIDArg(c)
			if err != nil {
				return err
			}

			roster, err := a.planner.LoadRoster(c.Context, eventID)
			if err != nil {
				return err
			}

			fmt.Printf("Attendees (%d)\n", len(roster))
			printRoster(roster, user.ID)
			return nil
		},
	}
}

func inviteCommand() *cli.Command {
	return &cli.Command{
		Name:      "invite",
		Usage:     "Invite a user to an event you organize.",
		ArgsUsage: "EVENT_ID",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "user", Usage: "User id to invite.", Required: true},
			&cli.StringFlag{Name: "role", Usage: "Role: attendee, collaborator, or organizer.", Value: "attendee"},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			user, err := a.requireLogin()
			if err != nil {
				return err
			}
			eventID, err := eventIDArg(c)
			if err != nil {
				return err
			}

			roster, err := a.planner.Invite(c.Context, models.InviteParams{
				EventID: eventID,
				UserID:  c.Int64("user"),
				Role:    models.Role(c.String("role")),
			})
			if err != nil {
				return err
			}

			fmt.Println("Invitation sent.")
			printRoster(roster, user.ID)
			return nil
		},
	}
}

func attendCommand() *cli.Command {
	return &cli.Command{
		Name:      "attend",
		Usage:     "Set your attendance on an event you are invited to.",
		ArgsUsage: "EVENT_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "going, maybe, or not_going.", Required: true},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}
			eventID, err := eventIDArg(c)
			if err != nil {
				return err
			}

			status := models.AttendanceStatus(c.String("status"))
			if _, err := a.planner.SetAttendance(c.Context, eventID, status); err != nil {
				return err
			}
			fmt.Printf("Attendance updated to %q\n", strings.ReplaceAll(string(status), "_", " "))
			return nil
		},
	}
}

func taskCommand() *cli.Command {
	return &cli.Command{
		Name:      "task",
		Usage:     "Attach a task to an event.",
		ArgsUsage: "EVENT_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Task title.", Required: true},
			&cli.StringFlag{Name: "description", Usage: "Task description."},
			&cli.StringFlag{Name: "due", Usage: "Due date (YYYY-MM-DDTHH:MM or RFC 3339)."},
			&cli.Int64Flag{Name: "assignee", Usage: "User id of the assignee."},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}
			eventID, err := eventIDArg(c)
			if err != nil {
				return err
			}

			dueDate, err := models.ParseDueDate(c.String("due"))
			if err != nil {
				return err
			}
			var assigneeID *int64
			if c.IsSet("assignee") {
				id := c.Int64("assignee")
				assigneeID = &id
			}

			task, err := a.planner.CreateTask(c.Context, models.CreateTaskParams{
				EventID:     eventID,
				Title:       c.String("title"),
				Description: c.String("description"),
				DueDate:     dueDate,
				AssigneeID:  assigneeID,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created task [%d] %s\n", task.ID, task.Title)
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search your events and tasks.",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Earliest start date (YYYY-MM-DD), inclusive."},
			&cli.StringFlag{Name: "to", Usage: "Latest start date (YYYY-MM-DD), inclusive."},
			&cli.StringFlag{Name: "role", Usage: "Only events where your role matches."},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}

			results, err := a.planner.Search(c.Context, strings.Join(c.Args().Slice(), " "), models.SearchFilters{
				From: c.String("from"),
				To:   c.String("to"),
				Role: models.Role(c.String("role")),
			})
			if err != nil {
				return err
			}

			if len(results.Events) == 0 && len(results.Tasks) == 0 {
				fmt.Println("No results found for your search.")
				return nil
			}

			if len(results.Events) > 0 {
				fmt.Printf("Events (%d)\n", len(results.Events))
				printEvents(results.Events)
			}
			if len(results.Tasks) > 0 {
				fmt.Printf("Tasks (%d)\n", len(results.Tasks))
				for _, task := range results.Tasks {
					fmt.Printf("  [%d] %s (event: %s)\n", task.ID, task.Title, task.EventTitle)
					if task.DueDate != nil {
						fmt.Printf("      Due: %s\n", task.DueDate.Local().Format(time.RFC1123))
					}
					if task.Status != "" {
						fmt.Printf("      Status: %s\n", task.Status)
					}
				}
			}
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export your events as an iCalendar file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "Output file. Defaults to stdout."},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}

			lists := a.planner.LoadEvents(c.Context)
			if lists.OrganizedErr != nil {
				return lists.OrganizedErr
			}
			if lists.InvitedErr != nil {
				return lists.InvitedErr
			}
			events := append(lists.Organized, lists.Invited...)
			if len(events) == 0 {
				return fmt.Errorf("no events to export")
			}

			out := os.Stdout
			if path := c.String("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return export.Write(out, events)
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Publish your organized events to a CalDAV calendar.",
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}

			endpoint := os.Getenv("CALDAV_URL")
			if endpoint == "" {
				return fmt.Errorf("CALDAV_URL environment variable not set")
			}

			client, err := publish.NewClient(a.logger,
				endpoint,
				os.Getenv("CALDAV_USERNAME"),
				os.Getenv("CALDAV_PASSWORD"),
				os.Getenv("CALDAV_CALENDAR_NAME"))
			if err != nil {
				return fmt.Errorf("failed to create caldav client: %w", err)
			}

			lists := a.planner.LoadEvents(c.Context)
			if lists.OrganizedErr != nil {
				return lists.OrganizedErr
			}
			if len(lists.Organized) == 0 {
				return fmt.Errorf("no organized events to publish")
			}

			if err := client.PublishAll(c.Context, lists.Organized); err != nil {
				return err
			}
			fmt.Printf("Published %d events.\n", len(lists.Organized))
			return nil
		},
	}
}

func eventIDArg(c *cli.Context) (int64, error) {
	raw := c.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("an event id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid event id %q", raw)
	}
	return id, nil
}

func printEvents(events []models.Event) {
	for _, ev := range events {
		fmt.Printf("  [%d] %s\n", ev.ID, ev.Title)
		if ev.Description != "" {
			fmt.Printf("      %s\n", ev.Description)
		}
		if ev.Location != "" {
			fmt.Printf("      Location: %s\n", ev.Location)
		}
		fmt.Printf("      Starts: %s\n", ev.StartTime.Local().Format(time.RFC1123))
	}
}

// printRoster renders the attendee table. The viewer's own organizer row
// shows no attendance; attendance belongs to invited collaborators.
func printRoster(roster []models.Attendee, viewerID int64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tEMAIL\tROLE\tSTATUS")
	for _, att := range roster {
		status := string(att.Status())
		if att.Role == models.RoleOrganizer && att.UserID == viewerID {
			status = "-"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", att.UserName, att.UserEmail, att.Role, strings.ReplaceAll(status, "_", " "))
	}
	w.Flush()
}
