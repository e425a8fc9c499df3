package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bitacora/client/internal/api"
	"bitacora/client/internal/reorder"
)

func newPhotosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Work with control point photo timelines",
	}
	cmd.AddCommand(newPhotosListCmd(), newPhotosMoveCmd(), newPhotosUploadCmd())
	return cmd
}

func newPhotosListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <control-point-id>",
		Short: "Print the timeline in server order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			collection, err := client.GetPhotoCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for i, p := range collection.Photos {
				fmt.Printf("%2d  %-10s %s  %s\n", i, p.ID, p.TakenAt.Format("2006-01-02"), p.Caption)
			}
			return nil
		},
	}
	return cmd
}

func newPhotosMoveCmd() *cobra.Command {
	var from, to int

	cmd := &cobra.Command{
		Use:   "move <control-point-id>",
		Short: "Move a photo and persist the new order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, capability, err := newClient()
			if err != nil {
				return err
			}
			collection, err := client.GetPhotoCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			list := reorder.NewList(client, capability, args[0], collection.Photos, 0)
			defer list.Close()

			if err := list.Move(cmd.Context(), from, to); err != nil {
				return err
			}
			for i, p := range list.Photos() {
				fmt.Printf("%2d  %-10s %s\n", i, p.ID, p.Caption)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "current index")
	cmd.Flags().IntVar(&to, "to", 0, "target index")
	return cmd
}

func newPhotosUploadCmd() *cobra.Command {
	var caption string

	cmd := &cobra.Command{
		Use:   "upload <control-point-id> <file>...",
		Short: "Upload progress photos",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}

			var files []api.PhotoUpload
			for _, path := range args[1:] {
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				files = append(files, api.PhotoUpload{
					Name:    filepath.Base(path),
					Caption: caption,
					Content: content,
				})
			}

			collection, err := client.UploadPhotos(cmd.Context(), args[0], files)
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %d file(s); timeline now has %d photos\n", len(files), len(collection.Photos))
			return nil
		},
	}
	cmd.Flags().StringVar(&caption, "caption", "", "caption for the uploaded photos")
	return cmd
}
