package detect

// RegistryReader resolves a Windows registry value to a string.
//
// Key paths use the hive-prefixed form stored in plugin descriptors, e.g.
// "HKEY_LOCAL_MACHINE\SOFTWARE\Vendor\Game". On platforms without a
// registry the reader fails every lookup, which simply means registry-based
// detection never matches there.
type RegistryReader interface {
	ReadString(keyPath, valueName string) (string, error)
}
