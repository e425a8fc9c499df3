package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bitacora/client/internal/sigasset"
)

func newAssetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage your encrypted personal signature asset",
	}
	cmd.AddCommand(newAssetUploadCmd(), newAssetRevealCmd(), newAssetRemoveCmd())
	return cmd
}

func newAssetUploadCmd() *cobra.Command {
	var password string
	var mimeType string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Encrypt and upload a signature image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			store := sigasset.New(client, nil)
			defer store.Close()

			meta, err := store.Upload(cmd.Context(), content, mimeType, password)
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %s asset (%d bytes sealed before leaving this machine)\n", meta.MimeType, len(content))
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password protecting the asset")
	cmd.Flags().StringVar(&mimeType, "mime", "image/png", "asset mime type")
	return cmd
}

func newAssetRevealCmd() *cobra.Command {
	var password string
	var out string

	cmd := &cobra.Command{
		Use:   "reveal",
		Short: "Decrypt the asset for one-time viewing",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			store := sigasset.New(client, nil)
			defer store.Close()

			if _, err := store.Load(cmd.Context()); err != nil {
				return err
			}
			plain, err := store.Reveal(cmd.Context(), password)
			if err != nil {
				if errors.Is(err, sigasset.ErrWrongPassword) {
					return fmt.Errorf("wrong password")
				}
				return err
			}
			// Content is dropped when the process exits; nothing is
			// cached for the next invocation.
			defer store.CloseView()

			if out == "" {
				fmt.Printf("Decrypted %d bytes (use --out to write them)\n", len(plain))
				return nil
			}
			return os.WriteFile(out, plain, 0o600)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password protecting the asset")
	cmd.Flags().StringVar(&out, "out", "", "write the decrypted content to a file")
	return cmd
}

func newAssetRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the asset permanently",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("removal is irreversible; pass --yes to proceed")
			}
			client, _, err := newClient()
			if err != nil {
				return err
			}
			store := sigasset.New(client, nil)
			defer store.Close()

			store.RequestRemoval()
			if err := store.ConfirmRemoval(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Signature asset removed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm removal")
	return cmd
}
