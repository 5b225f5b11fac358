package profile

import (
	"slices"
	"strings"
	"sync"

	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/pathutil"
)

// Registry is the in-memory profile set. It is safe for concurrent use.
//
// The registry owns no file I/O: profiles enter and leave through
// FromConfig/ToConfig against an injected key-value config snapshot, so the
// persistence layer (and its corruption handling) stays external.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewRegistry creates an empty profile registry.
func NewRegistry() *Registry {
	return &Registry{
		profiles: make(map[string]Profile),
	}
}

// Add inserts a new profile. The ID must be unused.
func (r *Registry) Add(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[p.ID]; exists {
		return errors.Newf("profile id %q already exists", p.ID)
	}
	r.profiles[p.ID] = p
	return nil
}

// Get returns the profile with the given ID.
func (r *Registry) Get(id string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, errors.Wrapf(errors.ErrProfileNotFound, "id %q", id)
	}
	return p, nil
}

// Update replaces an existing profile. The ID must already exist; changing
// a profile's ID is an explicit Remove+Add so archive history is never
// silently orphaned.
func (r *Registry) Update(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[p.ID]; !exists {
		return errors.Wrapf(errors.ErrProfileNotFound, "id %q", p.ID)
	}
	r.profiles[p.ID] = p
	return nil
}

// Remove deletes a profile entry. Existing archives are deliberately left
// in place; removing a profile never destroys backup history.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[id]; !exists {
		return errors.Wrapf(errors.ErrProfileNotFound, "id %q", id)
	}
	delete(r.profiles, id)
	return nil
}

// All returns every profile sorted by name, ID as tiebreak.
func (r *Registry) All() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		all = append(all, p)
	}
	slices.SortFunc(all, func(a, b Profile) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return all
}

// Len returns the number of profiles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

// FromConfig loads profiles from a config snapshot's "games" entry.
// Malformed entries are skipped and reported; one bad entry never prevents
// the rest from loading. Save paths are repaired and re-contracted against
// env on the way in.
func FromConfig(env pathutil.Env, data map[string]any) (*Registry, []error) {
	r := NewRegistry()
	var errs []error

	rawGames, ok := data["games"].([]any)
	if !ok {
		return r, nil
	}

	for i, rawGame := range rawGames {
		entry, ok := rawGame.(map[string]any)
		if !ok {
			errs = append(errs, errors.Newf("games[%d]: not an object", i))
			continue
		}

		p := Profile{
			ID:             stringField(entry, "id"),
			Name:           stringField(entry, "name"),
			SavePath:       repairSavePath(env, stringField(entry, "save_path")),
			Compress:       boolField(entry, "use_compression", true),
			ClearOnRestore: boolField(entry, "clear_folder_on_restore", true),
			PluginID:       stringField(entry, "plugin_id"),
		}

		if err := r.Add(p); err != nil {
			errs = append(errs, errors.Wrapf(err, "games[%d]", i))
		}
	}

	return r, errs
}

// ToConfig serializes the registry into a config snapshot fragment.
// The shape round-trips through FromConfig.
func (r *Registry) ToConfig() map[string]any {
	all := r.All()

	games := make([]any, 0, len(all))
	for _, p := range all {
		games = append(games, map[string]any{
			"id":                      p.ID,
			"name":                    p.Name,
			"save_path":               p.SavePath,
			"use_compression":         p.Compress,
			"clear_folder_on_restore": p.ClearOnRestore,
			"plugin_id":               p.PluginID,
		})
	}

	return map[string]any{"games": games}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolField(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}
