package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/pathutil"
	"github.com/savekit/savekit/internal/profile"
	"github.com/savekit/savekit/pkg/fileutil"
)

// LoadProfiles reads the profiles file into a registry. A missing file
// yields an empty registry. Malformed entries are skipped and reported in
// the returned slice without failing the load.
func LoadProfiles(env pathutil.Env, path string) (*profile.Registry, []error, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return profile.NewRegistry(), nil, nil
		}
		return nil, nil, errors.Wrapf(err, "reading profiles file %s", path)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, errors.Wrapf(err, "parsing profiles file %s", path)
	}

	reg, warnings := profile.FromConfig(env, raw)
	return reg, warnings, nil
}

// SaveProfiles writes the registry back to the profiles file atomically.
func SaveProfiles(path string, reg *profile.Registry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating profiles directory")
	}
	if err := fileutil.AtomicWriteJSON(path, reg.ToConfig()); err != nil {
		return errors.Wrapf(err, "writing profiles file %s", path)
	}
	return nil
}
