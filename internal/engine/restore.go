package engine

import (
	"os"
	"path/filepath"
	"time"

	"github.com/savekit/savekit/internal/archive"
	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/pathutil"
	"github.com/savekit/savekit/internal/plugin"
	"github.com/savekit/savekit/internal/profile"
)

// Restore runs the restore pipeline for a profile and a chosen archive:
//
//	pre_hook -> safety_archive -> clear -> extract -> post_hook
//
// The safety archive is non-negotiable: whenever the target folder exists
// and is non-empty it is snapshotted before anything is deleted or
// overwritten. Clear runs only when the profile asks for it, and only after
// the safety archive is durably on disk. Any step failure aborts the
// remaining steps with a StepError naming the step.
func (e *Engine) Restore(p profile.Profile, a archive.Archive) (*RestoreResult, error) {
	release := e.locks.acquire(p.ID)
	defer release()

	started := time.Now()
	result, err := e.runRestore(p, a)

	op := Operation{
		Kind:        "restore",
		ProfileID:   p.ID,
		GameName:    p.Name,
		ArchivePath: a.Path,
		Duration:    time.Since(started),
		StartedAt:   started,
	}
	if err != nil {
		op.Error = err.Error()
		if step, ok := FailedStep(err); ok {
			op.FailedStep = step
		}
	} else {
		op.Metadata = result.Metadata
		result.Duration = op.Duration
	}
	e.record(op)

	return result, err
}

func (e *Engine) runRestore(p profile.Profile, a archive.Archive) (*RestoreResult, error) {
	hooks := e.hooksFor(p)
	targetPath := pathutil.Expand(e.env, p.SavePath)

	// Pre-hook runs before any destructive action; its failure aborts the
	// whole restore with the target untouched.
	if _, err := plugin.CallHook(hooks.PreRestore, transformSeed(p)); err != nil {
		return nil, &StepError{Step: StepPreHook, Err: err}
	}

	var safety *archive.Archive
	if folderHasContent(targetPath) {
		s, err := e.store.Write(targetPath, archive.KindSafety, p.Name, true)
		if err != nil {
			return nil, &StepError{Step: StepSafetyArchive, Err: err}
		}
		safety = s
		e.log.Info("safety archive written", "profile", p.ID, "archive", s.Path)
	}

	if p.ClearOnRestore && safety != nil {
		// The safety archive is synced and renamed into place by now;
		// only then is deleting the current state acceptable.
		if err := clearFolder(targetPath); err != nil {
			return nil, &StepError{Step: StepClear, Err: err}
		}
	}

	if err := e.store.Extract(a.Path, targetPath); err != nil {
		return nil, &StepError{Step: StepExtract, Err: err}
	}
	e.log.Info("archive restored", "profile", p.ID, "archive", a.Path, "target", targetPath)

	metadata, err := e.runPostRestore(hooks, targetPath, safety)
	if err != nil {
		return nil, err
	}

	return &RestoreResult{
		RestorePath:   targetPath,
		SafetyArchive: safety,
		Metadata:      metadata,
	}, nil
}

func (e *Engine) runPostRestore(hooks plugin.Hooks, targetPath string, safety *archive.Archive) (map[string]any, error) {
	payload := map[string]any{"restore_path": targetPath}
	if safety != nil {
		payload["safety_archive_path"] = safety.Path
	}

	out, err := plugin.CallHook(hooks.PostRestore, payload)
	if err != nil {
		return nil, &StepError{Step: StepPostHook, Err: err}
	}

	metadata := make(map[string]any)
	for k, v := range out {
		if k == "restore_path" || k == "safety_archive_path" {
			continue
		}
		metadata[k] = v
	}
	return metadata, nil
}

// folderHasContent reports whether path is an existing directory with at
// least one entry.
func folderHasContent(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// clearFolder removes every entry inside dir, keeping dir itself.
func clearFolder(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "reading %s", dir)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return errors.Wrapf(err, "removing %s", entry.Name())
		}
	}
	return nil
}
