package profile

import (
	"strings"

	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/pathutil"
)

// Profile describes a single application's save folder and how it is
// backed up and restored. SavePath is stored in contracted form so profiles
// stay portable across machines.
type Profile struct {
	// ID uniquely identifies the profile. Once a profile has produced an
	// archive the ID must not change: archives are grouped by game name,
	// and history records reference the ID.
	ID string `json:"id"`

	// Name is the display name and the archive folder name.
	Name string `json:"name"`

	// SavePath is the contracted save folder path.
	SavePath string `json:"save_path"`

	// Compress enables Deflate compression for this profile's archives.
	Compress bool `json:"use_compression"`

	// ClearOnRestore deletes all pre-existing files in the save folder
	// before extraction (after the safety archive is written).
	ClearOnRestore bool `json:"clear_folder_on_restore"`

	// PluginID links the profile to the plugin that provides its hooks.
	// Empty for hand-created profiles.
	PluginID string `json:"plugin_id,omitempty"`
}

// Validate checks required fields.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("profile id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name is required")
	}
	if strings.TrimSpace(p.SavePath) == "" {
		return errors.New("profile save path is required")
	}
	if strings.ContainsAny(p.Name, `/\`) {
		return errors.Newf("profile name %q must not contain path separators", p.Name)
	}
	return nil
}

// repairSavePath normalizes a stored save path.
//
// Two historic corruptions are repaired on load: an accidental absolute
// prefix in front of a token ("C:\...\%PUBLIC%\Saves" becomes
// "%PUBLIC%\Saves"), and a raw absolute path, which is re-contracted
// against the current environment.
func repairSavePath(env pathutil.Env, raw string) string {
	if raw == "" {
		return ""
	}

	if i := tokenStart(raw); i > 0 {
		raw = raw[i:]
	}
	if strings.HasPrefix(raw, "%") || strings.HasPrefix(raw, "$") {
		return raw
	}
	return pathutil.Contract(env, pathutil.CleanInput(raw))
}

// tokenStart returns the index of the first token marker in s, or -1.
func tokenStart(s string) int {
	p := strings.IndexByte(s, '%')
	d := strings.IndexByte(s, '$')
	switch {
	case p == -1:
		return d
	case d == -1:
		return p
	case p < d:
		return p
	default:
		return d
	}
}
