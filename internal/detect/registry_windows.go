//go:build windows

package detect

import (
	"strings"

	"golang.org/x/sys/windows/registry"

	"github.com/savekit/savekit/internal/errors"
)

// osRegistryReader reads values from the live Windows registry.
type osRegistryReader struct{}

func (osRegistryReader) ReadString(keyPath, valueName string) (string, error) {
	hive, subPath, err := splitHive(keyPath)
	if err != nil {
		return "", err
	}

	key, err := registry.OpenKey(hive, subPath, registry.QUERY_VALUE)
	if err != nil {
		return "", errors.Wrapf(err, "opening key %s", keyPath)
	}
	defer key.Close()

	value, _, err := key.GetStringValue(valueName)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s\\%s", keyPath, valueName)
	}
	return value, nil
}

func splitHive(keyPath string) (registry.Key, string, error) {
	hive, rest, ok := strings.Cut(keyPath, `\`)
	if !ok {
		return 0, "", errors.Newf("key path %q has no hive prefix", keyPath)
	}

	switch hive {
	case "HKEY_LOCAL_MACHINE", "HKLM":
		return registry.LOCAL_MACHINE, rest, nil
	case "HKEY_CURRENT_USER", "HKCU":
		return registry.CURRENT_USER, rest, nil
	default:
		return 0, "", errors.Newf("unsupported hive %q", hive)
	}
}
