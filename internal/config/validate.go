package config

import (
	"github.com/savekit/savekit/internal/errors"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return errors.NewConfigError(
			errors.Newf("unsupported config version: %d", c.Version))
	}

	switch c.StorageMode {
	case StorageModeCWD, StorageModeFixed:
	default:
		return errors.NewConfigError(
			errors.Newf("invalid storage_mode %q (expected %q or %q)",
				c.StorageMode, StorageModeCWD, StorageModeFixed))
	}

	if c.StorageMode == StorageModeFixed && c.StoragePath == "" {
		return errors.NewConfigError(
			errors.New("storage_mode is \"fixed\" but storage_path is empty"))
	}

	if c.ProfilesFile == "" {
		return errors.NewConfigError(errors.New("profiles_file must be set"))
	}

	if c.Retention < 0 {
		return errors.NewConfigError(
			errors.Newf("retention must not be negative, got %d", c.Retention))
	}

	return nil
}
