// Package cli wires the configuration, plugin registry, archive store and
// engine together for command handlers. It exists so noun subpackages under
// cmd/savekit/commands can share one construction path without importing
// the root command package.
package cli

import (
	"log/slog"
	"strings"

	"github.com/savekit/savekit/internal/archive"
	"github.com/savekit/savekit/internal/config"
	"github.com/savekit/savekit/internal/engine"
	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/history"
	"github.com/savekit/savekit/internal/pathutil"
	"github.com/savekit/savekit/internal/plugin"
	"github.com/savekit/savekit/internal/plugin/builtin"
	"github.com/savekit/savekit/internal/profile"
)

// App holds the fully wired application state for one command invocation.
type App struct {
	Config   *config.Config
	Env      pathutil.Env
	Store    *archive.Store
	Profiles *profile.Registry
	Plugins  *plugin.Registry
	Engine   *engine.Engine

	// History is nil when the operation log could not be opened; commands
	// that only read history must check for that.
	History *history.Store

	log *slog.Logger
}

// NewApp loads configuration and constructs the application. The plugin
// registry is loaded eagerly so load failures surface in logs before the
// first operation runs. A broken history database degrades to a warning
// rather than failing the command.
func NewApp(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.NewConfigError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	env, err := cfg.Env()
	if err != nil {
		return nil, errors.NewConfigError(err)
	}

	root, err := cfg.StorageRoot(env)
	if err != nil {
		return nil, err
	}
	store := archive.NewStore(root)

	log := slog.Default()

	plugins := plugin.NewRegistry()
	snap := plugins.Load(plugin.Sources{
		Factories:  builtin.Factories(),
		CatalogDir: cfg.PluginDir,
	})
	for _, r := range snap.Report() {
		if r.Err != nil {
			log.Warn("plugin unit failed to load", "unit", r.Unit, "error", r.Err)
		}
	}

	profiles, warnings, err := config.LoadProfiles(env, cfg.ProfilesFile)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warn("skipping malformed profile entry", "error", w)
	}

	var opts []engine.Option
	hist, err := history.Open(cfg.HistoryDB)
	if err != nil {
		log.Warn("operation history unavailable", "path", cfg.HistoryDB, "error", err)
		hist = nil
	} else {
		opts = append(opts, engine.WithRecorder(hist))
	}
	opts = append(opts, engine.WithLogger(log))

	return &App{
		Config:   cfg,
		Env:      env,
		Store:    store,
		Profiles: profiles,
		Plugins:  plugins,
		Engine:   engine.New(env, store, plugins, opts...),
		History:  hist,
		log:      log,
	}, nil
}

// Close releases resources held by the app.
func (a *App) Close() {
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			a.log.Warn("closing history store", "error", err)
		}
	}
}

// SaveProfiles writes the profile registry back to disk.
func (a *App) SaveProfiles() error {
	return config.SaveProfiles(a.Config.ProfilesFile, a.Profiles)
}

// ResolveProfile finds a profile by ID, falling back to a case-insensitive
// name match.
func (a *App) ResolveProfile(idOrName string) (profile.Profile, error) {
	p, err := a.Profiles.Get(idOrName)
	if err == nil {
		return p, nil
	}

	for _, p := range a.Profiles.All() {
		if strings.EqualFold(p.Name, idOrName) {
			return p, nil
		}
	}

	return profile.Profile{}, errors.NewUserError(
		errors.Wrapf(errors.ErrProfileNotFound, "%q", idOrName),
		"Run: savekit profile list")
}
