package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/savekit/savekit/internal/errors"
)

// Sources describes where plugin units come from.
type Sources struct {
	// Factories are code-defined units, keyed by unit name for the report.
	Factories map[string]Factory

	// CatalogDir is scanned for declarative catalogs: *.jsonc / *.json
	// (comment-tolerant JSON) and *.toml. Empty means no catalog scan.
	CatalogDir string
}

// UnitReport records the load outcome for a single plugin unit.
// A nil Err means the unit loaded.
type UnitReport struct {
	// Unit names the source: a factory name or a catalog file entry.
	Unit string

	// GameID is set when the unit got far enough to declare an identity.
	GameID string

	// Err is the per-unit load failure, if any.
	Err error
}

// Snapshot is an immutable view of the loaded plugin set.
// Consumers hold a *Snapshot; a concurrent Reload never mutates it.
type Snapshot struct {
	descriptors map[string]Descriptor
	order       []string
	report      []UnitReport
}

// Get returns the descriptor for a game ID.
func (s *Snapshot) Get(gameID string) (Descriptor, bool) {
	d, ok := s.descriptors[gameID]
	return d, ok
}

// All returns descriptors in load order.
func (s *Snapshot) All() []Descriptor {
	all := make([]Descriptor, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.descriptors[id])
	}
	return all
}

// Report returns the per-unit load outcomes, including failures.
func (s *Snapshot) Report() []UnitReport {
	return s.report
}

// Len returns the number of loaded descriptors.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Registry owns the plugin snapshot. Load replaces it atomically: a reader
// observes either the fully-old or fully-new set, never a partial mix.
type Registry struct {
	snap atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry with an empty snapshot.
func NewRegistry() *Registry {
	r := &Registry{}
	r.snap.Store(&Snapshot{descriptors: map[string]Descriptor{}})
	return r
}

// Snapshot returns the current snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.snap.Load()
}

// Load builds a fresh snapshot from sources and swaps it in.
//
// Unit failures are isolated: a factory that panics, a catalog that fails to
// parse, or a descriptor with a duplicate game ID produces a report entry
// and the rest of the load continues. Load itself never returns an error.
func (r *Registry) Load(sources Sources) *Snapshot {
	b := &builder{
		descriptors: make(map[string]Descriptor),
	}

	// Factories load first, in name order, so precedence is deterministic.
	names := make([]string, 0, len(sources.Factories))
	for name := range sources.Factories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.loadFactory(name, sources.Factories[name])
	}

	if sources.CatalogDir != "" {
		b.loadCatalogDir(sources.CatalogDir)
	}

	snap := &Snapshot{
		descriptors: b.descriptors,
		order:       b.order,
		report:      b.report,
	}
	r.snap.Store(snap)
	return snap
}

type builder struct {
	descriptors map[string]Descriptor
	order       []string
	report      []UnitReport
}

func (b *builder) loadFactory(name string, factory Factory) {
	descs, err := callFactory(factory)
	if err != nil {
		b.report = append(b.report, UnitReport{
			Unit: name,
			Err:  errors.Wrapf(errors.ErrPluginLoad, "%s: %v", name, err),
		})
		return
	}

	for _, d := range descs {
		if d.Source == "" {
			d.Source = name
		}
		b.add(name, d)
	}
}

// callFactory isolates factory panics into per-unit errors.
func callFactory(factory Factory) (descs []Descriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			descs = nil
			err = errors.Newf("factory panicked: %v", r)
		}
	}()
	return factory(), nil
}

func (b *builder) loadCatalogDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		b.report = append(b.report, UnitReport{
			Unit: dir,
			Err:  errors.Wrapf(errors.ErrPluginLoad, "reading catalog directory: %v", err),
		})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		path := filepath.Join(dir, name)

		var descs []Descriptor
		var parseErr error
		switch strings.ToLower(filepath.Ext(name)) {
		case ".jsonc", ".json":
			descs, parseErr = ParseJSONCCatalog(path)
		case ".toml":
			descs, parseErr = ParseTOMLCatalog(path)
		default:
			continue
		}

		if parseErr != nil {
			b.report = append(b.report, UnitReport{
				Unit: name,
				Err:  errors.Wrapf(errors.ErrPluginLoad, "%s: %v", name, parseErr),
			})
			continue
		}

		for i, d := range descs {
			b.add(fmt.Sprintf("%s[%d]", name, i), d)
		}
	}
}

// add validates and registers one descriptor. The first unit to claim a
// game ID wins; later claimants are reported as duplicates.
func (b *builder) add(unit string, d Descriptor) {
	if err := d.Validate(); err != nil {
		b.report = append(b.report, UnitReport{
			Unit:   unit,
			GameID: d.GameID,
			Err:    errors.Wrapf(errors.ErrPluginLoad, "%s: %v", unit, err),
		})
		return
	}

	if _, exists := b.descriptors[d.GameID]; exists {
		b.report = append(b.report, UnitReport{
			Unit:   unit,
			GameID: d.GameID,
			Err:    errors.Wrapf(errors.ErrDuplicateIdentity, "%s: game id %q", unit, d.GameID),
		})
		return
	}

	b.descriptors[d.GameID] = d
	b.order = append(b.order, d.GameID)
	b.report = append(b.report, UnitReport{Unit: unit, GameID: d.GameID})
}
