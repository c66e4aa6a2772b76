package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/danieljhkim/statekeep/internal/config"
	"github.com/danieljhkim/statekeep/internal/identity"
	"github.com/danieljhkim/statekeep/internal/kv"
	"github.com/danieljhkim/statekeep/internal/logging"
	"github.com/danieljhkim/statekeep/internal/reducers"
	"github.com/danieljhkim/statekeep/internal/rehydrate"
	"github.com/danieljhkim/statekeep/internal/state"
)

// session bundles the resources a command needs.
type session struct {
	cfg     *config.Config
	paths   *config.Paths
	logger  *zap.Logger
	backend kv.Backend
}

// openSession loads configuration, applies global flag overrides, and opens
// the configured storage backend.
func openSession() (*session, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	path := configPath
	if path == "" {
		path = paths.Config
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if backendName != "" {
		cfg.Backend = backendName
	}
	if userID != "" {
		cfg.User.ID = userID
	}
	if environment != "" {
		cfg.Environment = environment
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	backend, err := kv.Open(cfg, paths)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}

	return &session{cfg: cfg, paths: paths, logger: logger, backend: backend}, nil
}

// Close releases the backend and flushes buffered logs.
func (s *session) Close() error {
	_ = s.logger.Sync()
	return s.backend.Close()
}

// newController wires a rehydration controller to the session's backend.
func (s *session) newController(bootstrap state.Snapshot, opts ...func(*rehydrate.Deps)) *rehydrate.Controller {
	deps := rehydrate.Deps{
		KV:          s.backend,
		Reducer:     reducers.Default(),
		Identity:    identity.NewStatic(s.cfg.User.ID, s.cfg.User.SupportSession),
		Features:    s.cfg.Features,
		Environment: s.cfg.Environment,
		Bootstrap:   bootstrap,
		Logger:      s.logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return rehydrate.New(deps)
}

// readSnapshotFile reads a JSON object from path. An empty path yields nil.
func readSnapshotFile(path string) (state.Snapshot, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var snapshot state.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if snapshot == nil {
		snapshot = state.Snapshot{}
	}
	return snapshot, nil
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatError formats an error for display.
func FormatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON writes a value as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
