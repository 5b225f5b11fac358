package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/savekit/savekit/internal/archive"
	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/logging"
	"github.com/savekit/savekit/internal/pathutil"
	"github.com/savekit/savekit/internal/plugin"
	"github.com/savekit/savekit/internal/profile"
)

// memRecorder captures operations for assertions.
type memRecorder struct {
	ops []Operation
	err error
}

func (m *memRecorder) Record(op Operation) error {
	m.ops = append(m.ops, op)
	return m.err
}

type fixture struct {
	engine   *Engine
	store    *archive.Store
	recorder *memRecorder
	home     string
	saveDir  string
	profile  profile.Profile
}

// hookFactory wires a descriptor with the given hooks under game id "game".
func hookFactory(hooks plugin.Hooks) plugin.Factory {
	return func() []plugin.Descriptor {
		return []plugin.Descriptor{{
			GameID:    "game",
			GameName:  "Game",
			SavePaths: []string{"%HOME%/Game"},
			Hooks:     hooks,
		}}
	}
}

func newFixture(t *testing.T, hooks *plugin.Hooks) *fixture {
	t.Helper()

	home := t.TempDir()
	saveDir := filepath.Join(home, "Game")
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(saveDir, "slot1.sav"), []byte("current save"), 0o600); err != nil {
		t.Fatal(err)
	}

	env := pathutil.FromMap(map[string]string{"HOME": home})
	store := archive.NewStore(t.TempDir())

	plugins := plugin.NewRegistry()
	p := profile.Profile{
		ID:             "game",
		Name:           "Game",
		SavePath:       "%HOME%/Game",
		Compress:       true,
		ClearOnRestore: true,
	}
	if hooks != nil {
		plugins.Load(plugin.Sources{
			Factories: map[string]plugin.Factory{"game": hookFactory(*hooks)},
		})
		p.PluginID = "game"
	}

	rec := &memRecorder{}
	eng := New(env, store, plugins,
		WithRecorder(rec),
		WithLogger(logging.ForTest(t)))

	return &fixture{
		engine:   eng,
		store:    store,
		recorder: rec,
		home:     home,
		saveDir:  saveDir,
		profile:  p,
	}
}

func TestBackupSuccess(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.engine.Backup(f.profile)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if _, err := os.Stat(res.Archive.Path); err != nil {
		t.Errorf("archive missing: %v", err)
	}
	if res.Metadata == nil {
		t.Error("metadata must never be nil")
	}

	if len(f.recorder.ops) != 1 {
		t.Fatalf("recorded %d ops, want 1", len(f.recorder.ops))
	}
	op := f.recorder.ops[0]
	if op.Kind != "backup" || op.Error != "" || op.ArchivePath != res.Archive.Path {
		t.Errorf("op = %+v", op)
	}
}

func TestBackupMissingSource(t *testing.T) {
	f := newFixture(t, nil)
	f.profile.SavePath = "%HOME%/DoesNotExist"

	_, err := f.engine.Backup(f.profile)
	if !errors.Is(err, errors.ErrPathNotFound) {
		t.Errorf("err = %v, want ErrPathNotFound", err)
	}
	if step, ok := FailedStep(err); !ok || step != StepResolve {
		t.Errorf("failed step = %q, want resolve", step)
	}

	op := f.recorder.ops[0]
	if op.FailedStep != StepResolve || op.Error == "" {
		t.Errorf("op = %+v", op)
	}
}

func TestBackupPreHookRewritesSource(t *testing.T) {
	altDir := ""
	hooks := plugin.Hooks{
		PreBackup: func(data map[string]any) (map[string]any, error) {
			data["save_path"] = altDir
			return data, nil
		},
	}
	f := newFixture(t, &hooks)

	// A second folder with distinct content proves where the archive read from.
	altDir = filepath.Join(t.TempDir(), "alt")
	if err := os.MkdirAll(altDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(altDir, "redirected.sav"), []byte("alt"), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := f.engine.Backup(f.profile)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}

	target := filepath.Join(t.TempDir(), "out")
	if err := f.store.Extract(res.Archive.Path, target); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(target, "redirected.sav")); err != nil {
		t.Error("archive was not read from the hook-rewritten path")
	}
}

func TestBackupPreHookWrongType(t *testing.T) {
	hooks := plugin.Hooks{
		PreBackup: func(data map[string]any) (map[string]any, error) {
			data["save_path"] = 123
			return data, nil
		},
	}
	f := newFixture(t, &hooks)

	_, err := f.engine.Backup(f.profile)
	if !errors.Is(err, errors.ErrPluginHook) {
		t.Errorf("err = %v, want ErrPluginHook", err)
	}
	if step, _ := FailedStep(err); step != StepPreHook {
		t.Errorf("failed step = %q, want pre_hook", step)
	}
}

func TestBackupPostHookMetadataMerged(t *testing.T) {
	hooks := plugin.Hooks{
		PostBackup: func(data map[string]any) (map[string]any, error) {
			data["sha256"] = "abc123"
			return data, nil
		},
	}
	f := newFixture(t, &hooks)

	res, err := f.engine.Backup(f.profile)
	if err != nil {
		t.Fatal(err)
	}
	if res.Metadata["sha256"] != "abc123" {
		t.Errorf("metadata = %v", res.Metadata)
	}
	if _, ok := res.Metadata["backup_path"]; ok {
		t.Error("engine-seeded keys must not leak into metadata")
	}
}

func TestBackupHookPanicFailsStep(t *testing.T) {
	hooks := plugin.Hooks{
		PreBackup: func(map[string]any) (map[string]any, error) { panic("bug") },
	}
	f := newFixture(t, &hooks)

	_, err := f.engine.Backup(f.profile)
	if !errors.Is(err, errors.ErrPluginHook) {
		t.Errorf("err = %v, want ErrPluginHook", err)
	}
}

func TestRestoreSafetyFailureLeavesTargetUntouched(t *testing.T) {
	f := newFixture(t, nil)

	// The archive to restore comes from a separate store so the engine's
	// own storage root can be sabotaged without touching it.
	src := archive.NewStore(t.TempDir())
	backup, err := src.Write(f.saveDir, archive.KindRegular, "Game", true)
	if err != nil {
		t.Fatal(err)
	}

	// A regular file where the game directory belongs makes the safety
	// archive write fail before anything is deleted.
	if err := os.WriteFile(filepath.Join(f.store.Root(), "Game"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err = f.engine.Restore(f.profile, *backup)
	if err == nil {
		t.Fatal("Restore did not error")
	}
	if step, ok := FailedStep(err); !ok || step != StepSafetyArchive {
		t.Errorf("failed step = %q, want safety_archive", step)
	}

	// The clear step never ran: the target still holds the current save.
	got, err := os.ReadFile(filepath.Join(f.saveDir, "slot1.sav"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "current save" {
		t.Errorf("target content = %q, want untouched", got)
	}

	op := f.recorder.ops[0]
	if op.FailedStep != StepSafetyArchive || op.Error == "" {
		t.Errorf("op = %+v", op)
	}
}

func TestRestoreWritesSafetyBeforeClear(t *testing.T) {
	f := newFixture(t, nil)

	// Archive the current save, then change it so the safety snapshot and
	// the restored content are distinguishable.
	backup, err := f.engine.Backup(f.profile)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.saveDir, "slot1.sav"), []byte("newer save"), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := f.engine.Restore(f.profile, backup.Archive)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if res.SafetyArchive == nil {
		t.Fatal("no safety archive for a non-empty target")
	}
	if res.SafetyArchive.Kind != archive.KindSafety {
		t.Errorf("kind = %q", res.SafetyArchive.Kind)
	}

	// Target now holds the archived content.
	got, err := os.ReadFile(filepath.Join(f.saveDir, "slot1.sav"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "current save" {
		t.Errorf("restored content = %q", got)
	}

	// The safety archive holds the pre-restore state.
	undo := filepath.Join(t.TempDir(), "undo")
	if err := f.store.Extract(res.SafetyArchive.Path, undo); err != nil {
		t.Fatal(err)
	}
	got, err = os.ReadFile(filepath.Join(undo, "slot1.sav"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "newer save" {
		t.Errorf("safety content = %q", got)
	}
}

func TestRestoreEmptyTargetSkipsSafety(t *testing.T) {
	f := newFixture(t, nil)

	backup, err := f.engine.Backup(f.profile)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(f.saveDir); err != nil {
		t.Fatal(err)
	}

	res, err := f.engine.Restore(f.profile, backup.Archive)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if res.SafetyArchive != nil {
		t.Error("safety archive written for an absent target")
	}
	if _, err := os.Stat(filepath.Join(f.saveDir, "slot1.sav")); err != nil {
		t.Errorf("restored file missing: %v", err)
	}
}

func TestRestoreCorruptArchiveLeavesTarget(t *testing.T) {
	f := newFixture(t, nil)

	bad := filepath.Join(t.TempDir(), "bad.zip")
	if err := os.WriteFile(bad, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The clear step runs before extract, so the pre-restore state must be
	// recoverable from the safety archive when extraction fails.
	_, err := f.engine.Restore(f.profile, archive.Archive{Path: bad, GameName: "Game", Kind: archive.KindRegular})
	if !errors.Is(err, errors.ErrCorruptArchive) {
		t.Fatalf("err = %v, want ErrCorruptArchive", err)
	}
	if step, _ := FailedStep(err); step != StepExtract {
		t.Errorf("failed step = %q, want extract", step)
	}

	// The pre-clear state is recoverable from the safety archive.
	safeties, err := f.store.List("Game", archive.KindSafety)
	if err != nil {
		t.Fatal(err)
	}
	if len(safeties) != 1 {
		t.Fatalf("safety archives = %d, want 1", len(safeties))
	}
	undo := filepath.Join(t.TempDir(), "undo")
	if err := f.store.Extract(safeties[0].Path, undo); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(undo, "slot1.sav"))
	if err != nil || string(got) != "current save" {
		t.Errorf("safety content = %q, %v", got, err)
	}
}

func TestRestoreNoClearWhenDisabled(t *testing.T) {
	f := newFixture(t, nil)
	f.profile.ClearOnRestore = false

	backup, err := f.engine.Backup(f.profile)
	if err != nil {
		t.Fatal(err)
	}
	// An extra file that the archive does not contain.
	if err := os.WriteFile(filepath.Join(f.saveDir, "extra.sav"), []byte("keep me"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := f.engine.Restore(f.profile, backup.Archive); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(f.saveDir, "extra.sav")); err != nil {
		t.Error("pre-existing file removed although clear_folder_on_restore is off")
	}
}

func TestRestoreClearRemovesStaleFiles(t *testing.T) {
	f := newFixture(t, nil)

	backup, err := f.engine.Backup(f.profile)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.saveDir, "stale.sav"), []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := f.engine.Restore(f.profile, backup.Archive); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(f.saveDir, "stale.sav")); !os.IsNotExist(err) {
		t.Error("stale file survived a clearing restore")
	}
}

func TestRestorePreHookFailureLeavesTargetUntouched(t *testing.T) {
	hooks := plugin.Hooks{
		PreRestore: func(map[string]any) (map[string]any, error) {
			return nil, errors.New("refuse")
		},
	}
	f := newFixture(t, &hooks)

	backup, err := f.engine.Backup(f.profile)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.saveDir, "slot1.sav"), []byte("untouchable"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err = f.engine.Restore(f.profile, backup.Archive)
	if step, _ := FailedStep(err); step != StepPreHook {
		t.Fatalf("failed step = %q, want pre_hook (err %v)", step, err)
	}

	got, _ := os.ReadFile(filepath.Join(f.saveDir, "slot1.sav"))
	if string(got) != "untouchable" {
		t.Errorf("target modified after pre-hook failure: %q", got)
	}

	// No safety archive either: nothing destructive happened.
	safeties, _ := f.store.List("Game", archive.KindSafety)
	if len(safeties) != 0 {
		t.Error("safety archive written although the restore never started")
	}
}

func TestRestorePostHookMetadata(t *testing.T) {
	hooks := plugin.Hooks{
		PostRestore: func(data map[string]any) (map[string]any, error) {
			data["verified"] = true
			return data, nil
		},
	}
	f := newFixture(t, &hooks)

	backup, err := f.engine.Backup(f.profile)
	if err != nil {
		t.Fatal(err)
	}

	res, err := f.engine.Restore(f.profile, backup.Archive)
	if err != nil {
		t.Fatal(err)
	}
	if res.Metadata["verified"] != true {
		t.Errorf("metadata = %v", res.Metadata)
	}
	if _, ok := res.Metadata["restore_path"]; ok {
		t.Error("engine-seeded keys must not leak into metadata")
	}
}

func TestRecorderFailureDoesNotFailPipeline(t *testing.T) {
	f := newFixture(t, nil)
	f.recorder.err = errors.New("history down")

	if _, err := f.engine.Backup(f.profile); err != nil {
		t.Errorf("Backup failed because of the recorder: %v", err)
	}
}

func TestUnloadedPluginGetsIdentityHooks(t *testing.T) {
	f := newFixture(t, nil)
	f.profile.PluginID = "never_loaded"

	if _, err := f.engine.Backup(f.profile); err != nil {
		t.Errorf("Backup: %v", err)
	}
}
