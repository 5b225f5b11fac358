//go:build !windows

package detect

import "github.com/savekit/savekit/internal/errors"

// osRegistryReader is the non-Windows stub. Every lookup fails, so
// registry-based detection is skipped on these platforms.
type osRegistryReader struct{}

func (osRegistryReader) ReadString(keyPath, valueName string) (string, error) {
	return "", errors.Newf("registry lookups are not supported on this platform")
}
