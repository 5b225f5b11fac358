package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/savekit/savekit/internal/pathutil"
	"github.com/savekit/savekit/internal/profile"
)

func profileFixture() profile.Profile {
	return profile.Profile{
		ID:             "terraria",
		Name:           "Terraria",
		SavePath:       "%HOME%/.local/share/Terraria",
		Compress:       true,
		ClearOnRestore: true,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"bad version", func(c *Config) { c.Version = 2 }, true},
		{"bad storage mode", func(c *Config) { c.StorageMode = "remote" }, true},
		{"fixed without path", func(c *Config) { c.StorageMode = StorageModeFixed }, true},
		{"fixed with path", func(c *Config) {
			c.StorageMode = StorageModeFixed
			c.StoragePath = "%HOME%/backups"
		}, false},
		{"empty profiles file", func(c *Config) { c.ProfilesFile = "" }, true},
		{"negative retention", func(c *Config) { c.Retention = -1 }, true},
		{"positive retention", func(c *Config) { c.Retention = 5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorageRoot(t *testing.T) {
	env := pathutil.FromMap(map[string]string{"HOME": "/home/alice"})

	t.Run("fixed mode expands tokens", func(t *testing.T) {
		cfg := Default()
		cfg.StorageMode = StorageModeFixed
		cfg.StoragePath = "%HOME%/game-backups"

		root, err := cfg.StorageRoot(env)
		if err != nil {
			t.Fatal(err)
		}
		if root != "/home/alice/game-backups" {
			t.Errorf("root = %q", root)
		}
	})

	t.Run("cwd mode uses working directory", func(t *testing.T) {
		cfg := Default()

		root, err := cfg.StorageRoot(env)
		if err != nil {
			t.Fatal(err)
		}
		cwd, _ := os.Getwd()
		if root != filepath.Join(cwd, "backups") {
			t.Errorf("root = %q", root)
		}
	})
}

func TestLoadProfilesMissingFile(t *testing.T) {
	env := pathutil.FromMap(nil)

	reg, warnings, err := LoadProfiles(env, filepath.Join(t.TempDir(), "profiles.json"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if len(warnings) != 0 || reg.Len() != 0 {
		t.Errorf("reg.Len() = %d, warnings = %v", reg.Len(), warnings)
	}
}

func TestSaveLoadProfilesRoundTrip(t *testing.T) {
	env := pathutil.FromMap(map[string]string{"HOME": "/home/alice"})
	path := filepath.Join(t.TempDir(), "nested", "profiles.json")

	reg, _, err := LoadProfiles(env, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(profileFixture()); err != nil {
		t.Fatal(err)
	}
	if err := SaveProfiles(path, reg); err != nil {
		t.Fatalf("SaveProfiles: %v", err)
	}

	reloaded, warnings, err := LoadProfiles(env, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}

	got, err := reloaded.Get("terraria")
	if err != nil {
		t.Fatal(err)
	}
	if got != profileFixture() {
		t.Errorf("round trip changed profile: %+v", got)
	}
}

func TestLoadProfilesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, err := LoadProfiles(pathutil.FromMap(nil), path)
	if err == nil {
		t.Fatal("expected error for corrupt profiles file")
	}
}
