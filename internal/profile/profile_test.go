package profile

import (
	"testing"

	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/pathutil"
)

func validProfile() Profile {
	return Profile{
		ID:             "terraria",
		Name:           "Terraria",
		SavePath:       "%HOME%/.local/share/Terraria",
		Compress:       true,
		ClearOnRestore: true,
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr bool
	}{
		{"valid", func(*Profile) {}, false},
		{"missing id", func(p *Profile) { p.ID = "" }, true},
		{"blank id", func(p *Profile) { p.ID = "   " }, true},
		{"missing name", func(p *Profile) { p.Name = "" }, true},
		{"missing save path", func(p *Profile) { p.SavePath = "" }, true},
		{"name with slash", func(p *Profile) { p.Name = "a/b" }, true},
		{"name with backslash", func(p *Profile) { p.Name = `a\b` }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistryCRUD(t *testing.T) {
	r := NewRegistry()
	p := validProfile()

	if err := r.Add(p); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(p); err == nil {
		t.Error("Add accepted a duplicate id")
	}

	got, err := r.Get("terraria")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Terraria" {
		t.Errorf("Name = %q", got.Name)
	}

	p.Compress = false
	if err := r.Update(p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = r.Get("terraria")
	if got.Compress {
		t.Error("Update did not stick")
	}

	if err := r.Update(Profile{ID: "ghost", Name: "Ghost", SavePath: "/x/saves"}); !errors.Is(err, errors.ErrProfileNotFound) {
		t.Errorf("Update unknown = %v, want ErrProfileNotFound", err)
	}

	if err := r.Remove("terraria"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := r.Get("terraria"); !errors.Is(err, errors.ErrProfileNotFound) {
		t.Errorf("Get after Remove = %v, want ErrProfileNotFound", err)
	}
	if err := r.Remove("terraria"); !errors.Is(err, errors.ErrProfileNotFound) {
		t.Errorf("second Remove = %v, want ErrProfileNotFound", err)
	}
}

func TestRegistryAllSorted(t *testing.T) {
	r := NewRegistry()
	for _, p := range []Profile{
		{ID: "c", Name: "Celeste", SavePath: "/s/c"},
		{ID: "a2", Name: "Anodyne", SavePath: "/s/a2"},
		{ID: "a1", Name: "Anodyne", SavePath: "/s/a1"},
	} {
		if err := r.Add(p); err != nil {
			t.Fatal(err)
		}
	}

	all := r.All()
	wantIDs := []string{"a1", "a2", "c"}
	for i, want := range wantIDs {
		if all[i].ID != want {
			t.Errorf("All()[%d].ID = %q, want %q", i, all[i].ID, want)
		}
	}
}

func TestFromConfigSkipsMalformedEntries(t *testing.T) {
	env := pathutil.FromMap(map[string]string{"HOME": "/home/alice"})

	data := map[string]any{
		"games": []any{
			map[string]any{
				"id":        "terraria",
				"name":      "Terraria",
				"save_path": "%HOME%/.local/share/Terraria",
			},
			"not an object",
			map[string]any{
				// missing id
				"name":      "Broken",
				"save_path": "/tmp/x",
			},
			map[string]any{
				"id":                      "celeste",
				"name":                    "Celeste",
				"save_path":               "%HOME%/celeste",
				"use_compression":         false,
				"clear_folder_on_restore": false,
			},
		},
	}

	r, errs := FromConfig(env, data)

	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
	if len(errs) != 2 {
		t.Errorf("errs = %v, want 2 entries", errs)
	}

	terraria, err := r.Get("terraria")
	if err != nil {
		t.Fatal(err)
	}
	if !terraria.Compress || !terraria.ClearOnRestore {
		t.Error("booleans should default to true")
	}

	celeste, err := r.Get("celeste")
	if err != nil {
		t.Fatal(err)
	}
	if celeste.Compress || celeste.ClearOnRestore {
		t.Error("explicit false booleans were not honored")
	}
}

func TestFromConfigRepairsSavePaths(t *testing.T) {
	env := pathutil.FromMap(map[string]string{"HOME": "/home/alice"})

	data := map[string]any{
		"games": []any{
			map[string]any{
				"id":        "prefixed",
				"name":      "Prefixed",
				"save_path": `C:\Users\old\%HOME%/saves`,
			},
			map[string]any{
				"id":        "raw",
				"name":      "Raw",
				"save_path": "/home/alice/raw-saves",
			},
		},
	}

	r, errs := FromConfig(env, data)
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}

	prefixed, _ := r.Get("prefixed")
	if prefixed.SavePath != "%HOME%/saves" {
		t.Errorf("prefixed save path = %q, want %%HOME%%/saves", prefixed.SavePath)
	}

	raw, _ := r.Get("raw")
	if raw.SavePath != "%HOME%/raw-saves" {
		t.Errorf("raw save path = %q, want re-contracted form", raw.SavePath)
	}
}

func TestToConfigRoundTrip(t *testing.T) {
	env := pathutil.FromMap(map[string]string{"HOME": "/home/alice"})

	r := NewRegistry()
	p := Profile{
		ID:             "terraria",
		Name:           "Terraria",
		SavePath:       "%HOME%/.local/share/Terraria",
		Compress:       false,
		ClearOnRestore: true,
		PluginID:       "terraria",
	}
	if err := r.Add(p); err != nil {
		t.Fatal(err)
	}

	r2, errs := FromConfig(env, r.ToConfig())
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}

	got, err := r2.Get("terraria")
	if err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Errorf("round trip changed profile:\n got %+v\nwant %+v", got, p)
	}
}

func TestFromConfigNoGamesKey(t *testing.T) {
	r, errs := FromConfig(pathutil.FromMap(nil), map[string]any{})
	if r.Len() != 0 || errs != nil {
		t.Errorf("Len = %d, errs = %v; want empty registry, no errors", r.Len(), errs)
	}
}
