package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bitacora/client/internal/api"
	"bitacora/client/internal/version"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect and version periodic reports",
	}
	cmd.AddCommand(newReportShowCmd(), newReportVersionsCmd(), newReportNewVersionCmd())
	return cmd
}

func newReportShowCmd() *cobra.Command {
	var asJSON bool
	var versionID string

	cmd := &cobra.Command{
		Use:   "show <report-id>",
		Short: "Show the current head or one historical version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, capability, err := newClient()
			if err != nil {
				return err
			}
			chain, err := version.Open(cmd.Context(), client, capability, api.KindReport, args[0])
			if err != nil {
				return err
			}
			defer chain.Close()

			doc := chain.Current()
			if versionID != "" {
				doc, err = chain.Select(cmd.Context(), versionID)
				if err != nil {
					return err
				}
			}
			return printDocument(doc, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw record")
	cmd.Flags().StringVar(&versionID, "version-id", "", "show a historical version instead of the head")
	return cmd
}

func newReportVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions <report-id>",
		Short: "List the version chain, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, capability, err := newClient()
			if err != nil {
				return err
			}
			chain, err := version.Open(cmd.Context(), client, capability, api.KindReport, args[0])
			if err != nil {
				return err
			}
			defer chain.Close()

			for _, v := range chain.Versions() {
				marker := " "
				if v.ID == chain.Current().ID {
					marker = "*"
				}
				fmt.Printf("%s v%-3d %-10s %s  %s\n", marker, v.Version, v.Status, v.ID, v.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
	return cmd
}

func newReportNewVersionCmd() *cobra.Command {
	var summary string

	cmd := &cobra.Command{
		Use:   "new-version <report-id>",
		Short: "Create the next version of a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, capability, err := newClient()
			if err != nil {
				return err
			}
			chain, err := version.Open(cmd.Context(), client, capability, api.KindReport, args[0])
			if err != nil {
				return err
			}
			defer chain.Close()

			doc, err := chain.CreateNewVersion(cmd.Context(), version.Changes{Summary: summary})
			if err != nil {
				return err
			}
			fmt.Printf("Created %s v%d (id %s)\n", doc.Number, doc.Version, doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "", "summary for the new version")
	return cmd
}

func printDocument(doc api.Document, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	fmt.Printf("%s v%d  %s\n", doc.Number, doc.Version, doc.Status)
	if doc.Summary != "" {
		fmt.Println(doc.Summary)
	}
	fmt.Printf("Signatures: %d/%d\n", len(doc.Signatures), len(doc.RequiredSignatories))
	for _, req := range doc.RequiredSignatories {
		state := "pending"
		for _, sig := range doc.Signatures {
			if sig.Signer.ID == req.User.ID {
				state = "signed " + sig.SignedAt.Format("2006-01-02")
				break
			}
		}
		fmt.Printf("  %-20s %-12s %s\n", req.User.Name, req.Role, state)
	}
	return nil
}
