package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// keysCmd lists the stored snapshot keys.
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List stored snapshot keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		keys, err := sess.backend.Keys(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list keys: %w", err)
		}
		if keys == nil {
			keys = []string{}
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), keys)
		}

		p := newPrinter(cmd.OutOrStdout())
		p.Section(fmt.Sprintf("Snapshots (%s backend)", sess.cfg.Backend))
		if len(keys) == 0 {
			p.EmptyState("No snapshots stored")
			return nil
		}
		p.List(keys, 1)
		return nil
	},
}
