package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(imagesCmd, filesCmd, mediaCmd)
	imagesCmd.AddCommand(imagesUploadCmd, imagesDeleteCmd)
	filesCmd.AddCommand(filesUploadCmd, filesDeleteCmd)
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Attach or remove event images",
}

var imagesUploadCmd = &cobra.Command{
	Use:   "upload <event-id> <path>",
	Short: "Upload an image (needs a connection)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			ref, err := a.rec.UploadImage(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(ref)
			}
			fmt.Printf("Uploaded %s as image %s\n", ref.URI, ref.ServerID)
			return nil
		})
	},
}

var imagesDeleteCmd = &cobra.Command{
	Use:   "delete <event-id> <ref>",
	Short: "Delete an image by local path, server id or server path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			if err := a.rec.DeleteImage(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Deleted image %s\n", args[1])
			return nil
		})
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Attach or remove event files",
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload <event-id> <path>",
	Short: "Upload a file (needs a connection)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			path, err := a.rec.UploadFile(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]string{"file": path})
			}
			fmt.Printf("Uploaded %s\n", path)
			return nil
		})
	},
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete <event-id> <server-path>",
	Short: "Delete a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			if err := a.rec.DeleteFile(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Deleted file %s\n", args[1])
			return nil
		})
	},
}

var mediaCmd = &cobra.Command{
	Use:   "media <event-id>",
	Short: "List an event's images and files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx, cancel := commandContext()
			defer cancel()

			list, err := a.rec.Media(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(list)
			}
			fmt.Printf("Images (%d):\n", len(list.Images))
			for _, img := range list.Images {
				fmt.Printf("  %s  %s\n", img.ServerID, img.URI)
			}
			fmt.Printf("Files (%d):\n", len(list.Files))
			for _, f := range list.Files {
				fmt.Printf("  %s\n", f)
			}
			return nil
		})
	},
}
