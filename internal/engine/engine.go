package engine

import (
	"log/slog"

	"github.com/savekit/savekit/internal/archive"
	"github.com/savekit/savekit/internal/pathutil"
	"github.com/savekit/savekit/internal/plugin"
	"github.com/savekit/savekit/internal/profile"
)

// Engine orchestrates backup and restore pipelines over an archive store,
// an environment snapshot, and the plugin registry.
//
// Each invocation is a single synchronous pipeline. Callers wanting
// responsiveness run it on their own goroutine; operations for the same
// profile are serialized internally.
type Engine struct {
	env     pathutil.Env
	store   *archive.Store
	plugins *plugin.Registry
	history Recorder
	log     *slog.Logger
	locks   *profileLocks
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder attaches an operation recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.history = r
	}
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an Engine.
func New(env pathutil.Env, store *archive.Store, plugins *plugin.Registry, opts ...Option) *Engine {
	e := &Engine{
		env:     env,
		store:   store,
		plugins: plugins,
		log:     slog.Default(),
		locks:   newProfileLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the engine's archive store.
func (e *Engine) Store() *archive.Store {
	return e.store
}

// hooksFor returns the hook set of the profile's plugin, if any.
// A profile without a plugin (or with a plugin no longer loaded) gets
// identity hooks.
func (e *Engine) hooksFor(p profile.Profile) plugin.Hooks {
	if p.PluginID == "" {
		return plugin.Hooks{}
	}
	desc, ok := e.plugins.Snapshot().Get(p.PluginID)
	if !ok {
		e.log.Debug("profile references unloaded plugin", "profile", p.ID, "plugin", p.PluginID)
		return plugin.Hooks{}
	}
	return desc.Hooks
}

// transformSeed builds the mutable mapping handed to pre-processing hooks.
func transformSeed(p profile.Profile) map[string]any {
	return map[string]any{
		"id":                      p.ID,
		"name":                    p.Name,
		"save_path":               p.SavePath,
		"use_compression":         p.Compress,
		"clear_folder_on_restore": p.ClearOnRestore,
	}
}

// record hands the operation to the recorder, logging failures instead of
// propagating them: history must never break a pipeline.
func (e *Engine) record(op Operation) {
	if e.history == nil {
		return
	}
	if err := e.history.Record(op); err != nil {
		e.log.Warn("recording operation failed", "profile", op.ProfileID, "error", err)
	}
}
