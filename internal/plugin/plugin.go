package plugin

import (
	"github.com/savekit/savekit/internal/errors"
)

// RegistryKey identifies a Windows registry value used for game detection:
// the value is read and, if it expands to an existing folder, the game is
// considered installed.
type RegistryKey struct {
	KeyPath   string
	ValueName string
}

// HookFunc is a pipeline extension point.
//
// Hooks receive a mutable mapping seeded by the engine and return a
// (possibly modified) mapping. Keys the engine models are documented per
// hook point; unknown keys pass through opaquely so future extensions stay
// additive. A nil HookFunc is an identity transform.
type HookFunc func(data map[string]any) (map[string]any, error)

// Hooks is the optional capability set a plugin can provide.
// Any field may be nil.
type Hooks struct {
	// PreBackup runs before the source folder is archived. It receives the
	// profile transformation mapping (see engine) and may rewrite
	// "save_path" to redirect the effective source.
	PreBackup HookFunc

	// PostBackup runs after a successful backup with {"backup_path": ...};
	// keys it adds are merged into the result metadata.
	PostBackup HookFunc

	// PreRestore runs before any destructive restore step.
	PreRestore HookFunc

	// PostRestore runs after extraction with {"restore_path": ...,
	// "safety_archive_path": ...}; keys it adds populate result metadata.
	PostRestore HookFunc
}

// Descriptor is the normalized plugin shape. Code-defined units and
// declarative catalog entries both reduce to this; nothing downstream
// distinguishes the two.
type Descriptor struct {
	// GameID is the stable unique identity. Duplicates are rejected at
	// registry build time.
	GameID string

	// GameName is the display name, also used as the archive folder name
	// for auto-added profiles.
	GameName string

	// SavePaths are candidate save locations in contracted form, in
	// detection precedence order (first existing entry wins).
	SavePaths []string

	// FilePatterns is informational; archive contents are not filtered
	// against it.
	FilePatterns []string

	// RegistryKeys are detection fallbacks checked when no save path exists.
	RegistryKeys []RegistryKey

	// Hooks are the optional pipeline extension points.
	Hooks Hooks

	// Source records where the unit came from, for the load report
	// (e.g. "builtin", "games.jsonc", "extra.toml").
	Source string
}

// Validate checks the required identity fields.
func (d Descriptor) Validate() error {
	if d.GameID == "" {
		return errors.New("descriptor missing game id")
	}
	if d.GameName == "" {
		return errors.New("descriptor missing game name")
	}
	if len(d.SavePaths) == 0 {
		return errors.New("descriptor has no save paths")
	}
	return nil
}

// Factory produces zero or more plugin descriptors. Code-defined plugin
// units expose one of these; the registry isolates factory panics so a
// broken unit cannot take down the load.
type Factory func() []Descriptor

// CallHook invokes fn with data, treating a nil hook as identity and
// recovering panics into ErrPluginHook. A hook returning a nil map with no
// error is treated as "unchanged".
func CallHook(fn HookFunc, data map[string]any) (result map[string]any, err error) {
	if fn == nil {
		return data, nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.Wrapf(errors.ErrPluginHook, "hook panicked: %v", r)
		}
	}()

	out, err := fn(data)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrPluginHook, "%v", err)
	}
	if out == nil {
		return data, nil
	}
	return out, nil
}
