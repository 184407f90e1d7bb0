package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(participantsCmd)
	participantsCmd.AddCommand(participantsAddCmd, participantsListCmd, participantsRemoveCmd)
}

var participantsCmd = &cobra.Command{
	Use:   "participants",
	Short: "Manage who is invited to an event",
}

var participantsAddCmd = &cobra.Command{
	Use:   "add <event-id> <email>...",
	Short: "Invite registered users by email (needs a connection)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			added, err := a.rec.AddParticipants(ctx, args[0], args[1:])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(added)
			}
			for _, email := range added {
				fmt.Printf("Added %s\n", email)
			}
			if skipped := len(args[1:]) - len(added); skipped > 0 {
				fmt.Printf("Skipped %d (unknown, already invited or the owner)\n", skipped)
			}
			return nil
		})
	},
}

var participantsListCmd = &cobra.Command{
	Use:   "list <event-id>",
	Short: "Show the owner and participants of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			list, err := a.rec.Participants(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(list)
			}
			fmt.Printf("Owner: %s <%s>\n", list.Owner.Name, list.Owner.Email)
			for _, p := range list.Participants {
				if p.Name == "" {
					fmt.Printf("  %s\n", p.Email)
					continue
				}
				fmt.Printf("  %s <%s>\n", p.Name, p.Email)
			}
			return nil
		})
	},
}

var participantsRemoveCmd = &cobra.Command{
	Use:   "remove <event-id> <email>",
	Short: "Remove a participant from an event you own",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			if err := a.rec.RemoveParticipant(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[1])
			return nil
		})
	},
}
