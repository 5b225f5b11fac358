package detect

import (
	"os"

	"github.com/savekit/savekit/internal/pathutil"
	"github.com/savekit/savekit/internal/plugin"
	"github.com/savekit/savekit/internal/profile"
)

// Confidence states which heuristic matched a descriptor.
type Confidence string

const (
	// ConfidenceSavePath means an expanded save path exists on disk.
	ConfidenceSavePath Confidence = "save_path"

	// ConfidenceRegistry means a registry lookup resolved to an existing
	// folder. Weaker than a save path hit: the game is installed but may
	// never have written a save.
	ConfidenceRegistry Confidence = "registry"
)

// Result is one detected descriptor.
type Result struct {
	Descriptor plugin.Descriptor

	// Confidence names the heuristic that matched.
	Confidence Confidence

	// SavePath is the contracted save path that will be used for an
	// auto-added profile: the first existing entry, or the first entry
	// when detection came from the registry.
	SavePath string
}

// Service runs detection heuristics against plugin descriptors.
// Detection is read-only: it never creates profiles or touches the
// filesystem beyond existence checks.
type Service struct {
	env pathutil.Env
	reg RegistryReader
}

// Option configures a Service.
type Option func(*Service)

// WithRegistryReader overrides the platform registry reader, mainly for tests.
func WithRegistryReader(r RegistryReader) Option {
	return func(s *Service) {
		s.reg = r
	}
}

// NewService creates a detection service over an environment snapshot.
func NewService(env pathutil.Env, opts ...Option) *Service {
	s := &Service{
		env: env,
		reg: osRegistryReader{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detect checks every descriptor in the snapshot and returns the detected
// ones in snapshot order. Running it twice against an unchanged filesystem
// yields identical results.
func (s *Service) Detect(snap *plugin.Snapshot) []Result {
	var results []Result
	for _, d := range snap.All() {
		if r, ok := s.DetectOne(d); ok {
			results = append(results, r)
		}
	}
	return results
}

// DetectOne applies both heuristics to a single descriptor: any existing
// save path is sufficient; otherwise each registry lookup is resolved and
// its value, expanded, must denote an existing folder.
func (s *Service) DetectOne(d plugin.Descriptor) (Result, bool) {
	for _, contracted := range d.SavePaths {
		if dirOrFileExists(pathutil.Expand(s.env, contracted)) {
			return Result{
				Descriptor: d,
				Confidence: ConfidenceSavePath,
				SavePath:   contracted,
			}, true
		}
	}

	for _, key := range d.RegistryKeys {
		value, err := s.reg.ReadString(key.KeyPath, key.ValueName)
		if err != nil || value == "" {
			continue
		}
		if dirExists(pathutil.Expand(s.env, value)) {
			return Result{
				Descriptor: d,
				Confidence: ConfidenceRegistry,
				SavePath:   firstSavePath(d),
			}, true
		}
	}

	return Result{}, false
}

// ProfileFor builds the profile a user would get by accepting a detection
// result. The caller decides whether to add it; detection itself never does.
func (r Result) ProfileFor() profile.Profile {
	return profile.Profile{
		ID:             "plugin_" + r.Descriptor.GameID,
		Name:           r.Descriptor.GameName,
		SavePath:       r.SavePath,
		Compress:       true,
		ClearOnRestore: true,
		PluginID:       r.Descriptor.GameID,
	}
}

func firstSavePath(d plugin.Descriptor) string {
	if len(d.SavePaths) > 0 {
		return d.SavePaths[0]
	}
	return ""
}

func dirOrFileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
