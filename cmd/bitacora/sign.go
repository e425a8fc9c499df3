package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bitacora/client/internal/api"
	"bitacora/client/internal/signing"
)

const consentStatement = "I have reviewed this document and sign it of my own accord."

func newSignCmd() *cobra.Command {
	var kind string
	var signerID string
	var statement string

	cmd := &cobra.Command{
		Use:   "sign <document-id>",
		Short: "Affirm consent and sign a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != api.KindReport && kind != api.KindActa {
				return fmt.Errorf("unknown document kind %q", kind)
			}
			client, capability, err := newClient()
			if err != nil {
				return err
			}
			doc, err := client.GetDocument(cmd.Context(), kind, args[0])
			if err != nil {
				return err
			}

			engine := signing.NewEngine(client, capability, doc)
			defer engine.Close()

			if err := engine.GiveConsent(signerID, statement); err != nil {
				return err
			}
			updated, err := engine.RequestSignature(cmd.Context(), signerID)
			if err != nil {
				if errors.Is(err, signing.ErrAlreadySigned) {
					fmt.Println("Already signed:", engine.LastError(signerID))
					return nil
				}
				return err
			}

			fmt.Printf("Signed. %d of %d signatures present, status %s\n",
				len(updated.Signatures), len(updated.RequiredSignatories), updated.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", api.KindReport, "document kind (reports or actas)")
	cmd.Flags().StringVar(&signerID, "signer", "", "signer user id")
	cmd.Flags().StringVar(&statement, "consent", consentStatement, "consent statement to affirm")
	_ = cmd.MarkFlagRequired("signer")
	return cmd
}
