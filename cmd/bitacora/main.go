package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"bitacora/client/internal/api"
	"bitacora/client/internal/config"
	"bitacora/client/internal/rbac"
	"bitacora/client/internal/session"
)

func main() {
	root := &cobra.Command{
		Use:           "bitacora",
		Short:         "Client for the bitácora de obra backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newReportCmd(),
		newActaCmd(),
		newSignCmd(),
		newAssetCmd(),
		newPhotosCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Fatalf("bitacora: %v", err)
	}
}

// newClient wires config -> session -> api client the same way for
// every subcommand.
func newClient() (*api.Client, rbac.Capability, error) {
	cfg := config.Load()
	if cfg.Token == "" {
		return nil, rbac.Capability{}, fmt.Errorf("BITACORA_TOKEN is not set")
	}
	sess := session.New(cfg.Token, cfg.RefreshToken)
	client := api.New(cfg.APIBaseURL, sess, cfg.Timeout, cfg.CacheTTL)
	client.SupportsMultipleFiles = cfg.MultiFileUploads
	capability := rbac.Capability{Role: rbac.Normalize(cfg.Role)}
	return client, capability, nil
}
