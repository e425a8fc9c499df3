package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bitacora/client/internal/api"
	"bitacora/client/internal/commitments"
)

func newActaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acta",
		Short: "Work with acta commitments",
	}
	cmd.AddCommand(newActaCommitmentsCmd())
	return cmd
}

func newActaCommitmentsCmd() *cobra.Command {
	var toggle []string
	var save bool

	cmd := &cobra.Command{
		Use:   "commitments <acta-id>",
		Short: "List, toggle and save commitment statuses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, capability, err := newClient()
			if err != nil {
				return err
			}
			doc, err := client.GetDocument(cmd.Context(), api.KindActa, args[0])
			if err != nil {
				return err
			}

			tracker := commitments.NewTracker(client, capability, doc.ID, doc.Commitments)
			defer tracker.Close()

			for _, id := range toggle {
				if err := tracker.Toggle(id); err != nil {
					return err
				}
			}
			if save && tracker.Dirty() {
				// Per-commitment updates are independent; a partial
				// failure reports every failed id at once.
				if err := tracker.Save(cmd.Context()); err != nil {
					return fmt.Errorf("some commitments were not saved: %w", err)
				}
			}

			for _, c := range tracker.Items() {
				mark := " "
				if c.Status == api.CommitmentCompleted {
					mark = "x"
				}
				fmt.Printf("[%s] %-10s %-20s due %s  %s\n", mark, c.ID, c.Responsible.Name, c.DueDate.Format("2006-01-02"), c.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&toggle, "toggle", nil, "commitment ids to flip before printing")
	cmd.Flags().BoolVar(&save, "save", false, "persist toggled statuses")
	return cmd
}
