package pathutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/savekit/savekit/internal/errors"
)

// minTokenValueLen filters out short environment values (e.g. "1", "on")
// that would otherwise contract unrelated paths.
const minTokenValueLen = 4

// Env is an immutable snapshot of environment variables used for path
// contraction and expansion. Production code builds one from the live
// process environment with Snapshot; tests supply fixtures with FromMap.
//
// Contract and Expand are pure functions over a snapshot, so detection and
// engine code can be exercised without touching the real environment.
type Env struct {
	vars map[string]string

	// candidates are variables whose values look like filesystem paths,
	// sorted by value length descending so the most specific prefix wins.
	candidates []envVar
}

type envVar struct {
	name  string
	value string
}

// Snapshot captures the current process environment.
// Only variables whose values are existing filesystem paths become
// contraction candidates; all variables participate in expansion.
func Snapshot() Env {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return build(vars, true)
}

// FromMap builds a snapshot from a fixture map. Every value long enough to
// be a path is a contraction candidate; no disk access is performed.
func FromMap(vars map[string]string) Env {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return build(copied, false)
}

// WithVarsFile returns a snapshot extended with variables from an env-format
// file (KEY=value lines). File entries override process values, which lets a
// user define portable custom tokens shared across machines.
func (e Env) WithVarsFile(path string) (Env, error) {
	extra, err := godotenv.Read(path)
	if err != nil {
		return e, errors.Wrapf(err, "reading vars file %s", path)
	}

	merged := make(map[string]string, len(e.vars)+len(extra))
	for k, v := range e.vars {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return build(merged, false), nil
}

// Lookup returns the value of a variable in the snapshot.
func (e Env) Lookup(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func build(vars map[string]string, checkDisk bool) Env {
	e := Env{vars: vars}

	for name, value := range vars {
		if len(value) < minTokenValueLen || !filepath.IsAbs(value) {
			continue
		}
		if checkDisk {
			if _, err := os.Stat(value); err != nil {
				continue
			}
		}
		e.candidates = append(e.candidates, envVar{name: name, value: filepath.Clean(value)})
	}

	// Longest value first; ties broken by name so contraction is deterministic.
	sort.Slice(e.candidates, func(i, j int) bool {
		if len(e.candidates[i].value) != len(e.candidates[j].value) {
			return len(e.candidates[i].value) > len(e.candidates[j].value)
		}
		return e.candidates[i].name < e.candidates[j].name
	})

	return e
}

// CleanInput normalizes a user-supplied path: strips file:// URL prefixes
// (drag-and-drop from file managers produces these) and cleans separators.
func CleanInput(raw string) string {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return ""
	}
	lower := strings.ToLower(clean)
	switch {
	case strings.HasPrefix(lower, "file:///"):
		clean = clean[8:]
	case strings.HasPrefix(lower, "file://"):
		clean = clean[7:]
	}
	return filepath.Clean(clean)
}

// Contract replaces the longest matching environment-value prefix of absPath
// with its %NAME% token. If no candidate matches, the path is returned
// unchanged (a literal absolute path is a valid, lossy-safe contracted path).
//
// The %NAME% token form is emitted on every platform; Expand accepts both
// %NAME% and $NAME forms, so contracted paths stay portable across machines
// and operating systems.
func Contract(env Env, absPath string) string {
	if absPath == "" {
		return ""
	}

	abs := filepath.Clean(absPath)
	normAbs := normCase(abs)

	for _, c := range env.candidates {
		normVal := normCase(c.value)
		if !strings.HasPrefix(normAbs, normVal) {
			continue
		}
		rest := abs[len(c.value):]
		if rest == "" {
			return "%" + c.name + "%"
		}
		if rest[0] == filepath.Separator || rest[0] == '/' {
			rest = strings.TrimLeft(rest, string(filepath.Separator)+"/")
			return "%" + c.name + "%" + string(filepath.Separator) + rest
		}
		// Prefix ends mid-component ("/home/user" vs "/home/username");
		// not a real match, keep looking.
	}

	return abs
}

// Expand replaces every recognized environment token in contracted with the
// snapshot's value. Unresolved tokens pass through literally; downstream
// existence checks surface those as missing paths. Expand never fails.
//
// Both %NAME% and $NAME/${NAME} token forms are recognized, and a leading ~
// expands to the snapshot's HOME (or USERPROFILE) value.
func Expand(env Env, contracted string) string {
	if contracted == "" {
		return ""
	}

	expanded := expandTokens(env, contracted)
	expanded = expandHome(env, expanded)
	return filepath.Clean(expanded)
}

func expandTokens(env Env, s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		switch s[i] {
		case '%':
			end := strings.IndexByte(s[i+1:], '%')
			if end < 0 {
				b.WriteString(s[i:])
				return b.String()
			}
			name := s[i+1 : i+1+end]
			if v, ok := env.vars[name]; ok && validTokenName(name) {
				b.WriteString(v)
			} else {
				b.WriteString(s[i : i+end+2])
			}
			i += end + 2
		case '$':
			name, width := scanDollarToken(s[i:])
			if name == "" {
				b.WriteByte(s[i])
				i++
				continue
			}
			if v, ok := env.vars[name]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(s[i : i+width])
			}
			i += width
		default:
			b.WriteByte(s[i])
			i++
		}
	}

	return b.String()
}

// scanDollarToken parses $NAME or ${NAME} at the start of s.
// Returns the variable name and the total consumed width, or "" if the
// dollar sign does not begin a well-formed token.
func scanDollarToken(s string) (name string, width int) {
	if len(s) < 2 {
		return "", 0
	}

	if s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return "", 0
		}
		name = s[2:end]
		if !validTokenName(name) {
			return "", 0
		}
		return name, end + 1
	}

	j := 1
	for j < len(s) && isTokenChar(s[j]) {
		j++
	}
	if j == 1 {
		return "", 0
	}
	return s[1:j], j
}

func expandHome(env Env, path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, ok := env.vars["HOME"]
	if !ok {
		home, ok = env.vars["USERPROFILE"]
	}
	if !ok {
		return path
	}

	if path == "~" {
		return home
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(home, path[2:])
	}
	return path
}

// normCase folds case on case-insensitive filesystems so prefix matching
// behaves like the OS does.
func normCase(p string) string {
	if runtime.GOOS == "windows" {
		return strings.ToLower(p)
	}
	return p
}

func validTokenName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isTokenChar(name[i]) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
