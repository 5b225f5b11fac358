// Package builtin contains the code-defined plugin units that ship with
// savekit. Each unit is a factory returning descriptors; the registry treats
// them exactly like catalog entries once normalized.
//
// Keep a game's ID stable once released: profiles link back to their plugin
// through it, and a changed ID orphans existing profiles.
package builtin

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/savekit/savekit/internal/plugin"
)

// Factories returns all built-in plugin units, keyed by unit name.
func Factories() map[string]plugin.Factory {
	return map[string]plugin.Factory{
		"assassins_creed_3": assassinsCreed3,
		"terraria":          terraria,
	}
}

func assassinsCreed3() []plugin.Descriptor {
	return []plugin.Descriptor{{
		GameID:    "ac3_remastered",
		GameName:  "Assassin's Creed III Remastered",
		SavePaths: []string{`%PUBLIC%\Documents\uPlay\CODEX\Saves\AssassinsCreedIIIRemastered`},
		RegistryKeys: []plugin.RegistryKey{
			{KeyPath: `HKEY_LOCAL_MACHINE\SOFTWARE\Ubisoft\AssassinsCreedIIIRemastered`, ValueName: "InstallDir"},
		},
		FilePatterns: []string{"*"},
	}}
}

func terraria() []plugin.Descriptor {
	return []plugin.Descriptor{{
		GameID:   "terraria",
		GameName: "Terraria",
		SavePaths: []string{
			`%USERPROFILE%\Documents\My Games\Terraria`,
			`$HOME/.local/share/Terraria`,
		},
		FilePatterns: []string{"*.wld", "*.plr"},
		Hooks: plugin.Hooks{
			PostBackup: checksumHook,
		},
	}}
}

// checksumHook records a SHA256 of the created archive in the backup
// metadata so later verification can spot bit rot.
func checksumHook(data map[string]any) (map[string]any, error) {
	path, ok := data["backup_path"].(string)
	if !ok {
		return data, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}

	data["sha256"] = hex.EncodeToString(h.Sum(nil))
	return data, nil
}
