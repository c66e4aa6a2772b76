package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/statekeep/internal/hash"
	"github.com/danieljhkim/statekeep/internal/identity"
	"github.com/danieljhkim/statekeep/internal/rehydrate"
	"github.com/danieljhkim/statekeep/internal/state"
)

var snapshotHasher hash.Hasher = hash.NewSHA256Hasher()

// inspectResult describes one persisted snapshot.
type inspectResult struct {
	User    string         `json:"user"`
	Key     string         `json:"key"`
	Found   bool           `json:"found"`
	SavedAt *time.Time     `json:"saved_at,omitempty"`
	Age     string         `json:"age,omitempty"`
	Stale   bool           `json:"stale"`
	Digest  string         `json:"digest,omitempty"`
	State   state.Snapshot `json:"state,omitempty"`
}

// inspectCmd shows the snapshot persisted for a user.
var inspectCmd = &cobra.Command{
	Use:   "inspect [user-id]",
	Short: "Show the persisted snapshot for a user",
	Long: `Show the snapshot persisted for a user, when it was written, and whether it
is older than the seven day limit and would be discarded on the next start.

Without an argument the configured user (--user, STATEKEEP_USER or the config
file) is inspected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		id := sess.cfg.User.ID
		if len(args) == 1 {
			id = args[0]
		}
		if id == "" {
			return fmt.Errorf("no user to inspect: %w", identity.ErrNotAuthenticated)
		}

		result := inspectResult{User: id, Key: identity.KeyFor(id)}
		snapshot, err := sess.backend.Get(cmd.Context(), result.Key)
		if err != nil {
			return fmt.Errorf("failed to read snapshot: %w", err)
		}

		if snapshot != nil {
			now := time.Now()
			result.Found = true
			result.Stale = rehydrate.IsStale(snapshot, now)
			if age, ok := rehydrate.Age(snapshot, now); ok {
				savedAt := now.Add(-age)
				result.SavedAt = &savedAt
				result.Age = age.Round(time.Second).String()
			}
			digest, err := snapshotHasher.HashSnapshot(snapshot)
			if err != nil {
				return err
			}
			result.Digest = digest
			result.State = snapshot.Clone()
			delete(result.State, rehydrate.TimestampKey)
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), result)
		}
		return printInspectResult(newPrinter(cmd.OutOrStdout()), result)
	},
}

func printInspectResult(p *printer, result inspectResult) error {
	p.Section("Snapshot")
	p.LabelValue("User", result.User)
	p.LabelValue("Key", result.Key)
	if !result.Found {
		p.EmptyState("No snapshot stored")
		return nil
	}
	if result.SavedAt != nil {
		p.LabelValue("Saved", result.SavedAt.Format(time.RFC3339))
		p.LabelValue("Age", result.Age)
	} else {
		p.LabelValue("Saved", "unknown")
	}
	if result.Stale {
		p.LabelValueWithColor("Status", "stale", warningColor)
	} else {
		p.LabelValueWithColor("Status", "fresh", successColor)
	}
	p.LabelValue("Digest", result.Digest)

	p.Section("State")
	text, err := formatJSON(result.State)
	if err != nil {
		return err
	}
	p.Block(text)
	return nil
}
