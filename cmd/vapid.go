package cmd

import (
	"fmt"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewVapidCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid",
		Short: "generates a VAPID key pair for web push",
		RunE: func(cmd *cobra.Command, args []string) error {
			privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
			if err != nil {
				return errors.Wrap(err, "generate VAPID keys")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "# Add these to your .env file")
			fmt.Fprintf(out, "VAPID_PUBLIC_KEY=%s\n", publicKey)
			fmt.Fprintf(out, "VAPID_PRIVATE_KEY=%s\n", privateKey)
			fmt.Fprintln(out, "VAPID_SUBSCRIBER=mailto:you@example.com")
			return nil
		},
	}
}
