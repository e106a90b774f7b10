package pipeline

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keagan/composer/pkg/util"
)

// Cleanup owns the scratch directory of one export and every artifact
// written into it. Track is safe for concurrent use.
type Cleanup struct {
	mu     sync.Mutex
	logger zerolog.Logger
	dir    string
	paths  []string
	done   bool
}

// NewCleanup creates a fresh composer-* directory under baseDir. An empty
// baseDir means the system temp directory.
func NewCleanup(baseDir string, logger zerolog.Logger) (*Cleanup, error) {
	if baseDir != "" {
		if err := util.EnsureDir(baseDir); err != nil {
			return nil, fmt.Errorf("create temp base %s: %w", baseDir, err)
		}
	}
	dir, err := os.MkdirTemp(baseDir, "composer-*")
	if err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	return &Cleanup{
		logger: logger.With().Str("component", "cleanup").Logger(),
		dir:    dir,
	}, nil
}

// Dir is the scratch directory
func (c *Cleanup) Dir() string {
	return c.dir
}

// Track registers an artifact for removal. Register before writing, so a
// partially written file is removed too.
func (c *Cleanup) Track(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

// Paths returns the tracked artifacts in registration order
func (c *Cleanup) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

// Run removes every tracked artifact and then the scratch directory.
// Failures are logged and never returned; later calls do nothing.
func (c *Cleanup) Run() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return
	}
	c.done = true

	for _, path := range c.paths {
		if err := util.RemoveFile(path); err != nil {
			c.logger.Warn().Err(err).Str("path", path).Msg("failed to remove artifact")
		}
	}

	if err := os.RemoveAll(c.dir); err != nil {
		c.logger.Warn().Err(err).Str("dir", c.dir).Msg("failed to remove work directory")
	}

	c.logger.Debug().Int("artifacts", len(c.paths)).Str("dir", c.dir).Msg("cleanup complete")
}
