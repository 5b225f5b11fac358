package plugin

import (
	"encoding/json"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/pkg/fileutil"
)

// catalogEntry is the on-disk shape of a declarative plugin definition.
//
// Required fields: id, name, save_paths. Registry keys are
// [key_path, value_name] pairs.
type catalogEntry struct {
	ID           string     `json:"id" toml:"id"`
	Name         string     `json:"name" toml:"name"`
	SavePaths    []string   `json:"save_paths" toml:"save_paths"`
	FilePatterns []string   `json:"file_patterns" toml:"file_patterns"`
	RegistryKeys [][]string `json:"registry_keys" toml:"registry_keys"`
}

// tomlCatalog is the top-level TOML catalog shape: a [[games]] table array.
type tomlCatalog struct {
	Games []catalogEntry `toml:"games"`
}

// ParseJSONCCatalog reads a comment-tolerant JSON catalog: a top-level array
// of descriptor objects. Lines whose first non-blank characters are // are
// stripped before parsing.
func ParseJSONCCatalog(path string) ([]Descriptor, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return nil, err
	}

	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		kept = append(kept, line)
	}

	var entries []catalogEntry
	if err := json.Unmarshal([]byte(strings.Join(kept, "\n")), &entries); err != nil {
		return nil, errors.Wrap(err, "parsing catalog")
	}

	return normalizeEntries(entries, path)
}

// ParseTOMLCatalog reads a TOML catalog containing a [[games]] table array.
func ParseTOMLCatalog(path string) ([]Descriptor, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return nil, err
	}

	var catalog tomlCatalog
	if err := toml.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrap(err, "parsing catalog")
	}

	return normalizeEntries(catalog.Games, path)
}

func normalizeEntries(entries []catalogEntry, source string) ([]Descriptor, error) {
	descs := make([]Descriptor, 0, len(entries))
	for i, e := range entries {
		keys := make([]RegistryKey, 0, len(e.RegistryKeys))
		for _, pair := range e.RegistryKeys {
			if len(pair) != 2 {
				return nil, errors.Newf("entry %d: registry key must be a [key_path, value_name] pair", i)
			}
			keys = append(keys, RegistryKey{KeyPath: pair[0], ValueName: pair[1]})
		}

		patterns := e.FilePatterns
		if len(patterns) == 0 {
			patterns = []string{"*"}
		}

		descs = append(descs, Descriptor{
			GameID:       e.ID,
			GameName:     e.Name,
			SavePaths:    e.SavePaths,
			FilePatterns: patterns,
			RegistryKeys: keys,
			Source:       source,
		})
	}
	return descs, nil
}
