package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chazu/dagnav/internal/logging"
)

const (
	// ProjectConfigFile is the project-level config file name.
	ProjectConfigFile = "dagnav.yaml"
	// UserConfigDir is the user-level config directory under $HOME.
	UserConfigDir = ".config/dagnav"
	// UserConfigFile is the user-level config file name.
	UserConfigFile = "config.yaml"
)

// Loader loads configuration with layered precedence.
type Loader struct {
	logger *slog.Logger
	home   string
	dir    string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHome overrides the home directory used for the user config.
func WithHome(dir string) LoaderOption {
	return func(l *Loader) { l.home = dir }
}

// WithWorkDir overrides the directory the project config search starts
// from.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) { l.dir = dir }
}

// NewLoader creates a Loader. A nil logger discards output.
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	l := &Loader{logger: logger}
	if home, err := os.UserHomeDir(); err == nil {
		l.home = home
	}
	if cwd, err := os.Getwd(); err == nil {
		l.dir = cwd
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load merges, in order:
//  1. defaults
//  2. user config (~/.config/dagnav/config.yaml)
//  3. project config (dagnav.yaml in the working directory or a parent)
//  4. explicit, when non-empty
//
// A missing user or project file is skipped. A missing explicit file is
// an error.
func (l *Loader) Load(explicit string) (*Config, error) {
	cfg := DefaultConfig()

	if path := l.userConfigPath(); path != "" {
		user, err := LoadFromFile(path)
		switch {
		case err == nil:
			l.logger.Debug("loaded user config", "path", path)
			cfg.Merge(user)
		case !errors.Is(err, fs.ErrNotExist):
			l.logger.Warn("failed to load user config", "path", path, "error", err)
		}
	}

	if path := l.findProjectConfig(); path != "" {
		project, err := LoadFromFile(path)
		if err != nil {
			l.logger.Warn("failed to load project config", "path", path, "error", err)
		} else {
			l.logger.Debug("loaded project config", "path", path)
			cfg.Merge(project)
		}
	}

	if explicit != "" {
		c, err := LoadFromFile(explicit)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded config", "path", explicit)
		cfg.Merge(c)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) userConfigPath() string {
	if l.home == "" {
		return ""
	}
	return filepath.Join(l.home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for dagnav.yaml from the working directory
// up to the filesystem root.
func (l *Loader) findProjectConfig() string {
	if l.dir == "" {
		return ""
	}
	dir := l.dir
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
