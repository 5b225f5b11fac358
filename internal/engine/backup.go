package engine

import (
	"os"
	"time"

	"github.com/savekit/savekit/internal/archive"
	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/pathutil"
	"github.com/savekit/savekit/internal/plugin"
	"github.com/savekit/savekit/internal/profile"
)

// Backup runs the backup pipeline for a profile:
//
//	resolve -> pre_hook -> archive -> post_hook
//
// The pre-processing hook may rewrite the effective source path; keys the
// post-processing hook adds end up in the result metadata. A step failure
// aborts the pipeline with a StepError naming the step. The engine never
// retries on its own.
func (e *Engine) Backup(p profile.Profile) (*BackupResult, error) {
	release := e.locks.acquire(p.ID)
	defer release()

	started := time.Now()
	result, err := e.runBackup(p)

	op := Operation{
		Kind:      "backup",
		ProfileID: p.ID,
		GameName:  p.Name,
		Duration:  time.Since(started),
		StartedAt: started,
	}
	if err != nil {
		op.Error = err.Error()
		if step, ok := FailedStep(err); ok {
			op.FailedStep = step
		}
	} else {
		op.ArchivePath = result.Archive.Path
		op.Metadata = result.Metadata
		result.Duration = op.Duration
	}
	e.record(op)

	return result, err
}

func (e *Engine) runBackup(p profile.Profile) (*BackupResult, error) {
	hooks := e.hooksFor(p)

	// Resolve: the contracted path must expand to an existing folder.
	sourcePath := pathutil.Expand(e.env, p.SavePath)
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, &StepError{Step: StepResolve,
			Err: errors.Wrapf(errors.ErrPathNotFound, "source %s: %v", sourcePath, err)}
	}

	// Pre-hook: may rewrite the effective source path.
	seed := transformSeed(p)
	transformed, err := plugin.CallHook(hooks.PreBackup, seed)
	if err != nil {
		return nil, &StepError{Step: StepPreHook, Err: err}
	}
	if raw, present := transformed["save_path"]; present {
		contracted, ok := raw.(string)
		if !ok {
			// save_path is a key the engine models; a wrong type is a
			// hook contract violation, not something to paper over.
			return nil, &StepError{Step: StepPreHook,
				Err: errors.Wrapf(errors.ErrPluginHook, "hook returned non-string save_path %T", raw)}
		}
		if contracted != p.SavePath {
			sourcePath = pathutil.Expand(e.env, contracted)
			e.log.Debug("pre-backup hook rewrote source path",
				"profile", p.ID, "path", sourcePath)
		}
	}

	a, err := e.store.Write(sourcePath, archive.KindRegular, p.Name, p.Compress)
	if err != nil {
		return nil, &StepError{Step: StepArchive, Err: err}
	}
	e.log.Info("backup archived", "profile", p.ID, "archive", a.Path)

	metadata, err := e.runPostBackup(hooks, a)
	if err != nil {
		return nil, err
	}

	return &BackupResult{
		Archive:  *a,
		Metadata: metadata,
	}, nil
}

// runPostBackup invokes the post-backup hook and collects the keys it adds.
func (e *Engine) runPostBackup(hooks plugin.Hooks, a *archive.Archive) (map[string]any, error) {
	payload := map[string]any{"backup_path": a.Path}
	out, err := plugin.CallHook(hooks.PostBackup, payload)
	if err != nil {
		return nil, &StepError{Step: StepPostHook, Err: err}
	}

	metadata := make(map[string]any)
	for k, v := range out {
		if k == "backup_path" {
			continue
		}
		metadata[k] = v
	}
	return metadata, nil
}
