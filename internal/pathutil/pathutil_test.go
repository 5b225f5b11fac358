package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func testEnv() Env {
	return FromMap(map[string]string{
		"HOME":        "/home/alice",
		"XDG_DATA":    "/home/alice/.local/share",
		"STEAM":       "/opt/steam",
		"SHORT":       "/a", // too short to ever be a candidate
		"NOTPATH":     "hello world",
		"USERPROFILE": "/home/alice",
	})
}

func TestContract(t *testing.T) {
	env := testEnv()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "longest prefix wins",
			in:   "/home/alice/.local/share/Terraria",
			want: "%XDG_DATA%/Terraria",
		},
		{
			name: "shorter prefix when longest does not match",
			in:   "/home/alice/Documents/saves",
			want: "%HOME%/Documents/saves",
		},
		{
			name: "exact match contracts to bare token",
			in:   "/opt/steam",
			want: "%STEAM%",
		},
		{
			name: "no candidate leaves path unchanged",
			in:   "/var/games/saves",
			want: "/var/games/saves",
		},
		{
			name: "mid-component prefix is not a match",
			in:   "/opt/steamapps/common",
			want: "/opt/steamapps/common",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contract(env, tt.in); got != tt.want {
				t.Errorf("Contract(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContractTieBreakByName(t *testing.T) {
	// Two candidates with the same value: the lexically smaller name wins,
	// so contraction is deterministic run to run.
	env := FromMap(map[string]string{
		"BBB": "/data/saves",
		"AAA": "/data/saves",
	})

	got := Contract(env, "/data/saves/game")
	if got != "%AAA%/game" {
		t.Errorf("Contract = %q, want %%AAA%%/game", got)
	}
}

func TestExpand(t *testing.T) {
	env := testEnv()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "percent token",
			in:   "%XDG_DATA%/Terraria",
			want: "/home/alice/.local/share/Terraria",
		},
		{
			name: "dollar token",
			in:   "$HOME/Documents",
			want: "/home/alice/Documents",
		},
		{
			name: "braced dollar token",
			in:   "${STEAM}/userdata",
			want: "/opt/steam/userdata",
		},
		{
			name: "tilde",
			in:   "~/saves",
			want: "/home/alice/saves",
		},
		{
			name: "bare tilde",
			in:   "~",
			want: "/home/alice",
		},
		{
			name: "unresolved token passes through",
			in:   "%NO_SUCH_VAR%/saves",
			want: "%NO_SUCH_VAR%/saves",
		},
		{
			name: "literal path untouched",
			in:   "/var/games/saves",
			want: "/var/games/saves",
		},
		{
			name: "stray percent is literal",
			in:   "/saves/100%",
			want: "/saves/100%",
		},
		{
			name: "stray dollar is literal",
			in:   "/saves/$",
			want: "/saves/$",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(env, tt.in); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContractExpandRoundTrip(t *testing.T) {
	env := testEnv()

	paths := []string{
		"/home/alice/.local/share/Terraria/Worlds",
		"/opt/steam/userdata/123/remote",
		"/home/alice",
		"/var/unrelated/path",
	}

	for _, p := range paths {
		contracted := Contract(env, p)
		if got := Expand(env, contracted); got != p {
			t.Errorf("round trip %q: contracted to %q, expanded to %q", p, contracted, got)
		}
	}
}

func TestExpandIdempotentOnLiteralPaths(t *testing.T) {
	env := testEnv()

	in := "/home/alice/.local/share/Terraria"
	once := Expand(env, in)
	twice := Expand(env, once)
	if once != twice {
		t.Errorf("Expand not stable: %q then %q", once, twice)
	}
}

func TestCleanInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  /home/alice/saves  ", "/home/alice/saves"},
		{"file:///home/alice/saves", "/home/alice/saves"},
		{"FILE:///home/alice/saves", "/home/alice/saves"},
		{"file://relative/clip", "relative/clip"},
		{"/home/alice//saves/", "/home/alice/saves"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanInput(tt.in); got != tt.want {
			t.Errorf("CleanInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithVarsFile(t *testing.T) {
	dir := t.TempDir()
	varsPath := filepath.Join(dir, "savekit.env")
	content := "GAME_LIBRARY=/mnt/games\nHOME=/home/override\n"
	if err := os.WriteFile(varsPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	env, err := testEnv().WithVarsFile(varsPath)
	if err != nil {
		t.Fatalf("WithVarsFile: %v", err)
	}

	if got := Contract(env, "/mnt/games/terraria"); got != "%GAME_LIBRARY%/terraria" {
		t.Errorf("Contract = %q, want %%GAME_LIBRARY%%/terraria", got)
	}

	// File entries override process values.
	if v, _ := env.Lookup("HOME"); v != "/home/override" {
		t.Errorf("HOME = %q, want /home/override", v)
	}
}

func TestWithVarsFileMissing(t *testing.T) {
	_, err := testEnv().WithVarsFile(filepath.Join(t.TempDir(), "nope.env"))
	if err == nil {
		t.Fatal("expected error for missing vars file")
	}
}

func TestSnapshotFiltersNonPaths(t *testing.T) {
	t.Setenv("SAVEKIT_TEST_NOT_A_PATH", "yes")

	dir := t.TempDir()
	t.Setenv("SAVEKIT_TEST_REAL_DIR", dir)

	env := Snapshot()

	if got := Contract(env, filepath.Join(dir, "saves")); got != "%SAVEKIT_TEST_REAL_DIR%"+string(filepath.Separator)+"saves" {
		t.Errorf("Contract = %q, want token for existing dir", got)
	}

	for _, c := range env.candidates {
		if c.name == "SAVEKIT_TEST_NOT_A_PATH" {
			t.Error("non-path value became a contraction candidate")
		}
	}
}
