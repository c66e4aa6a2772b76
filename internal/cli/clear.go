package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	clearForce  bool
	clearDryRun bool
)

// clearResult is the outcome of a clear.
type clearResult struct {
	Keys    []string `json:"keys"`
	Cleared bool     `json:"cleared"`
}

// clearCmd empties the persistent store.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored snapshot",
	Long: `Delete every snapshot in the configured backend.

If snapshots are stored you'll need to use --force to proceed. The next
run for any user then starts from bootstrap state only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		ctx := cmd.Context()
		keys, err := sess.backend.Keys(ctx)
		if err != nil {
			return fmt.Errorf("failed to list keys: %w", err)
		}
		if keys == nil {
			keys = []string{}
		}

		result := clearResult{Keys: keys}
		if !clearDryRun {
			if len(keys) > 0 && !clearForce {
				return fmt.Errorf("refusing to delete %s without --force", PrintCount(len(keys), "snapshot", "snapshots"))
			}
			if err := sess.backend.Clear(ctx); err != nil {
				return fmt.Errorf("failed to clear store: %w", err)
			}
			result.Cleared = true
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), result)
		}

		p := newPrinter(cmd.OutOrStdout())
		if clearDryRun {
			p.Section("Dry Run: Clear")
			p.List(keys, 1)
			p.Info("")
			p.Warning("Run without --dry-run to clear")
			return nil
		}

		p.Section("Clear")
		p.Success(fmt.Sprintf("Deleted %s", PrintCount(len(keys), "snapshot", "snapshots")))
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "Delete even when snapshots are stored")
	clearCmd.Flags().BoolVar(&clearDryRun, "dry-run", false, "Show what would be deleted without deleting")
}
