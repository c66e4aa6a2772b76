package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/statekeep/internal/identity"
	"github.com/danieljhkim/statekeep/internal/rehydrate"
	"github.com/danieljhkim/statekeep/internal/state"
)

var (
	runBootstrap string
	runActions   string
	runInterval  time.Duration
)

// runResult is the outcome of a run session.
type runResult struct {
	User        string         `json:"user,omitempty"`
	Key         string         `json:"key,omitempty"`
	Persisted   bool           `json:"persisted"`
	Dispatched  int64          `json:"dispatched"`
	Interrupted bool           `json:"interrupted"`
	State       state.Snapshot `json:"state"`
}

// runCmd rehydrates a store and feeds it actions until input ends.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rehydrate a store and dispatch actions into it",
	Long: `Rehydrate a store from the persisted snapshot and bootstrap state, then
dispatch newline-delimited JSON actions read from stdin or --actions.

Each action is an object such as {"type":"SET","payload":{"key":"theme","value":"dark"}}.
When input ends or the process receives SIGINT or SIGTERM, any pending
snapshot write is flushed and the final state is printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		bootstrap, err := readSnapshotFile(runBootstrap)
		if err != nil {
			return err
		}

		in := cmd.InOrStdin()
		if runActions != "" {
			f, err := os.Open(runActions)
			if err != nil {
				return fmt.Errorf("failed to open actions: %w", err)
			}
			defer f.Close()
			in = f
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := runSession(ctx, sess, bootstrap, in)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), result)
		}
		return printRunResult(newPrinter(cmd.OutOrStdout()), result)
	},
}

// runSession rehydrates the store, dispatches actions from in until it ends
// or ctx is cancelled, then flushes the persister. Cancellation ends the
// session normally with Interrupted set.
func runSession(ctx context.Context, sess *session, bootstrap state.Snapshot, in io.Reader) (runResult, error) {
	ctrl := sess.newController(bootstrap, func(d *rehydrate.Deps) {
		d.Interval = runInterval
	})
	store, err := ctrl.CreateStore(ctx).Wait(ctx)
	if err != nil {
		return runResult{}, fmt.Errorf("store was not ready: %w", err)
	}

	dispatched, err := dispatchActions(ctx, in, store)
	interrupted := false
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		interrupted = true
		err = nil
	}
	// No dispatch runs past this point, so the flush covers the final state,
	// as a page unload would.
	ctrl.Close()
	if err != nil {
		return runResult{}, err
	}

	result := runResult{
		Persisted:   ctrl.Persister() != nil,
		Dispatched:  dispatched,
		Interrupted: interrupted,
		State:       store.GetState(),
	}
	if u := sess.cfg.User.ID; u != "" {
		result.User = u
		result.Key = identity.KeyFor(u)
	}
	return result, nil
}

func printRunResult(p *printer, result runResult) error {
	p.Section("Session")
	if result.User != "" {
		p.LabelValue("User", result.User)
		p.LabelValue("Key", result.Key)
	} else {
		p.LabelValue("User", "(anonymous)")
	}
	if result.Persisted {
		p.LabelValueWithColor("Persistence", "active", successColor)
	} else {
		p.LabelValueWithColor("Persistence", "inactive", warningColor)
	}
	p.LabelValue("Dispatched", PrintCount(int(result.Dispatched), "action", "actions"))
	if result.Interrupted {
		p.Warning("Interrupted; pending snapshot flushed")
	}

	p.Section("Final State")
	text, err := formatJSON(result.State)
	if err != nil {
		return err
	}
	p.Block(text)
	return nil
}

// dispatchActions reads actions from r and dispatches them into store in
// order. It returns the number dispatched. When ctx is cancelled it returns
// as soon as the dispatching goroutine has stopped; only the reader, which
// may be blocked in r, is left behind.
func dispatchActions(ctx context.Context, r io.Reader, store *state.Store) (int64, error) {
	var dispatched int64
	actions := make(chan state.Action)
	readErr := make(chan error, 1)

	g, gctx := errgroup.WithContext(ctx)
	go func() {
		defer close(actions)
		readErr <- readActions(gctx, r, actions)
	}()
	g.Go(func() error {
		for {
			select {
			case action, ok := <-actions:
				if !ok {
					return <-readErr
				}
				store.Dispatch(action)
				dispatched++
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	err := g.Wait()
	return dispatched, err
}

// readActions decodes one JSON action per line. Blank lines are skipped.
func readActions(ctx context.Context, r io.Reader, out chan<- state.Action) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var action state.Action
		if err := json.Unmarshal(text, &action); err != nil {
			return fmt.Errorf("line %d: invalid action: %w", line, err)
		}
		if action.Type == "" {
			return fmt.Errorf("line %d: action has no type", line)
		}

		select {
		case out <- action:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read actions: %w", err)
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&runBootstrap, "bootstrap", "", "JSON file holding server bootstrap state")
	runCmd.Flags().StringVar(&runActions, "actions", "", "File of newline-delimited JSON actions (default stdin)")
	runCmd.Flags().DurationVar(&runInterval, "interval", rehydrate.SerializeThrottle, "Snapshot write throttle")
}
