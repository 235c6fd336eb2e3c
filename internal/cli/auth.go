package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Verify credentials and bucket access",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.strg.VerifyBucket(cmd.Context()); err != nil {
			return fmt.Errorf("bucket check failed: %w", err)
		}
		fmt.Printf("OK: bucket %q reachable at %s\n", a.cfg.R2Bucket, a.cfg.Endpoint())
		return nil
	},
}
