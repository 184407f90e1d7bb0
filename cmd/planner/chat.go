package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pliu/eventplanner/internal/models"
	"github.com/pliu/eventplanner/internal/realtime"
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.AddCommand(chatSendCmd, chatHistoryCmd, chatWatchCmd)
}

func printMessage(m models.Message) {
	fmt.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format("Jan 2 15:04"), m.Author.Name, m.Text)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the people at an event (needs a connection)",
}

var chatSendCmd = &cobra.Command{
	Use:   "send <event-id> <text>",
	Short: "Send a message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			msg, err := a.rec.SendMessage(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(msg)
			}
			printMessage(*msg)
			return nil
		})
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <event-id>",
	Short: "Print the messages of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			msgs, err := a.rec.Messages(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(msgs)
			}
			for _, m := range msgs {
				printMessage(m)
			}
			return nil
		})
	},
}

var chatWatchCmd = &cobra.Command{
	Use:   "watch <event-id>",
	Short: "Print history, then follow new messages until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID := args[0]
		return withApp(func(a *app) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := realtime.NewMessageLog()
			channel := a.channel()
			defer channel.Close()

			// Subscribe before fetching history so nothing sent in between is lost.
			unsubscribe, err := channel.Subscribe(ctx, eventID, func(m models.Message) {
				if log.Add(m) == 1 {
					printMessage(m)
				}
			})
			if err != nil {
				return err
			}
			defer unsubscribe()

			history, err := a.rec.Messages(ctx, eventID)
			if err != nil {
				return err
			}
			for _, m := range history {
				if log.Add(m) == 1 {
					printMessage(m)
				}
			}

			<-ctx.Done()
			fmt.Fprintf(os.Stderr, "\n%d messages seen.\n", log.Len())
			return nil
		})
	},
}
