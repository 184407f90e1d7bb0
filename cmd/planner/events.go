package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pliu/eventplanner/internal/api"
	"github.com/pliu/eventplanner/internal/database"
	"github.com/pliu/eventplanner/internal/reconcile"
)

var (
	eventTitle       string
	eventDescription string
	eventStart       string
	eventEnd         string
)

// Accepted layouts for --start and --end. Times without a zone are local.
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (use RFC 3339 or \"2006-01-02 15:04\")", value)
}

func eventInput() (api.EventInput, error) {
	start, err := parseTime(eventStart)
	if err != nil {
		return api.EventInput{}, err
	}
	end, err := parseTime(eventEnd)
	if err != nil {
		return api.EventInput{}, err
	}
	return api.EventInput{Title: eventTitle, Description: eventDescription, StartDate: start, EndDate: end}, nil
}

func printEvent(ev database.Event) {
	marker := ""
	if reconcile.IsLocalID(ev.ID) {
		marker = " [this device only]"
	}
	fmt.Printf("%s  %s%s\n", ev.ID, ev.Title, marker)
	fmt.Printf("  When:   %s - %s\n", ev.StartDate.Local().Format("Mon Jan 2 2006 15:04"), ev.EndDate.Local().Format("Mon Jan 2 2006 15:04"))
	fmt.Printf("  Owner:  %s <%s>\n", ev.OwnerName, ev.OwnerEmail)
	if ev.Description != "" {
		fmt.Printf("  About:  %s\n", ev.Description)
	}
	if len(ev.Participants) > 0 {
		fmt.Printf("  Guests: %s\n", strings.Join(ev.Participants, ", "))
	}
	if n := len(ev.Images) + len(ev.Files); n > 0 {
		fmt.Printf("  Media:  %d images, %d files\n", len(ev.Images), len(ev.Files))
	}
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd, eventsCreateCmd, eventsUpdateCmd, eventsDeleteCmd)

	for _, c := range []*cobra.Command{eventsCreateCmd, eventsUpdateCmd} {
		c.Flags().StringVar(&eventTitle, "title", "", "event title")
		c.Flags().StringVar(&eventDescription, "description", "", "event description")
		c.Flags().StringVar(&eventStart, "start", "", "start time")
		c.Flags().StringVar(&eventEnd, "end", "", "end time")
	}
	eventsCreateCmd.MarkFlagRequired("title")
	eventsCreateCmd.MarkFlagRequired("start")
	eventsCreateCmd.MarkFlagRequired("end")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List and manage events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events you own or were invited to",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			events, err := a.rec.FetchEvents(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(events)
			}
			if len(events) == 0 {
				fmt.Println("No events.")
				return nil
			}
			for _, ev := range events {
				printEvent(ev)
			}
			return nil
		})
	},
}

var eventsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an event",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := eventInput()
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			ev, err := a.rec.CreateEvent(ctx, in)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(ev)
			}
			printEvent(*ev)
			return nil
		})
	},
}

var eventsUpdateCmd = &cobra.Command{
	Use:   "update <event-id>",
	Short: "Change an event you own; omitted flags keep their values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := eventInput()
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			ev, err := a.rec.UpdateEvent(ctx, args[0], in)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(ev)
			}
			printEvent(*ev)
			return nil
		})
	},
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete <event-id>",
	Short: "Delete an event you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			if err := a.rec.DeleteEvent(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		})
	},
}
