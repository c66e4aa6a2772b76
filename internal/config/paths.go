// Package config manages statekeep configuration and filesystem paths.
//
// Configuration is read from a YAML file and then overridden from the
// environment. The default root is ~/.statekeep/ containing snapshots/,
// statekeep.db and config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by statekeep.
type Paths struct {
	// Root is the base directory for all statekeep data (default: ~/.statekeep)
	Root string

	// Snapshots is the directory holding one JSON file per snapshot key
	Snapshots string

	// Database is the SQLite file used by the sqlite backend
	Database string

	// Config is the path to the config file
	Config string
}

// DefaultPaths returns the default paths for statekeep.
// Paths can be overridden with environment variables:
// - STATEKEEP_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("STATEKEEP_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".statekeep")
	}
	return PathsAt(root), nil
}

// PathsAt returns the paths rooted at root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:      root,
		Snapshots: filepath.Join(root, "snapshots"),
		Database:  filepath.Join(root, "statekeep.db"),
		Config:    filepath.Join(root, "config.yaml"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Snapshots,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
