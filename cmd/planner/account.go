package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var registerName string

func init() {
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd, accountCmd)
	accountCmd.AddCommand(accountRenameCmd, accountNotificationsCmd)

	registerCmd.Flags().StringVar(&registerName, "name", "", "display name (required)")
	registerCmd.MarkFlagRequired("name")
}

// readPassword takes the password from PLANNER_PASSWORD or the first line of stdin.
func readPassword() (string, error) {
	if pw := os.Getenv("PLANNER_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("cannot read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account on the backend",
	Long:  "Create an account on the backend. Registering needs a connection and does not log in.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			user, err := a.session.Register(ctx, registerName, args[0], password)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(user)
			}
			fmt.Printf("Registered %s (%s). Run 'planner login %s' next.\n", user.Name, user.ID, user.Email)
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in, falling back to the cached account when the backend is unreachable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			if err := a.session.Login(ctx, args[0], password); err != nil {
				return err
			}
			snap := a.session.Current()
			if jsonOutput {
				return printJSON(snap)
			}
			fmt.Printf("Logged in as %s (%s)\n", snap.User.Name, snap.Source)
			if !snap.HasToken {
				fmt.Println("Offline session: changes stay on this device.")
			}
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			snap := a.session.Current()
			if jsonOutput {
				return printJSON(snap)
			}
			fmt.Printf("State:         %s\n", snap.State)
			if snap.User.ID == "" {
				return nil
			}
			fmt.Printf("Name:          %s\n", snap.User.Name)
			fmt.Printf("Email:         %s\n", snap.User.Email)
			fmt.Printf("Source:        %s\n", snap.Source)
			fmt.Printf("Notifications: %t\n", snap.NotificationsEnabled)
			return nil
		})
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage your account",
}

var accountRenameCmd = &cobra.Command{
	Use:   "rename <name>",
	Short: "Change your display name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			if err := a.session.UpdateName(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Name changed to %s\n", a.session.Current().User.Name)
			return nil
		})
	},
}

var accountNotificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Toggle invitation emails",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			enabled, err := a.session.ToggleNotifications(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Notifications: %t\n", enabled)
			return nil
		})
	},
}
