package engine

import (
	"fmt"
	"time"

	"github.com/savekit/savekit/internal/archive"
	"github.com/savekit/savekit/internal/errors"
)

// Step identifies a pipeline stage. Failures always name the step that
// aborted so callers never have to infer it from a generic error.
type Step string

const (
	// StepResolve expands the contracted save path and checks existence.
	StepResolve Step = "resolve"

	// StepPreHook runs the plugin's pre-processing hook.
	StepPreHook Step = "pre_hook"

	// StepSafetyArchive snapshots the current target folder before restore.
	StepSafetyArchive Step = "safety_archive"

	// StepClear empties the target folder (only after the safety archive
	// is durably written).
	StepClear Step = "clear"

	// StepArchive packs the source folder into a new archive.
	StepArchive Step = "archive"

	// StepExtract unpacks the chosen archive into the target folder.
	StepExtract Step = "extract"

	// StepPostHook runs the plugin's post-processing hook.
	StepPostHook Step = "post_hook"
)

// StepError reports which pipeline step failed and why.
// It unwraps to the underlying cause, so sentinel checks with errors.Is
// keep working through it.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep extracts the failing step from an engine error, if any.
func FailedStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}

// BackupResult is the outcome of a successful backup.
type BackupResult struct {
	// Archive is the created regular archive.
	Archive archive.Archive

	// Metadata holds keys contributed by the post-backup hook
	// (e.g. a checksum). Never nil.
	Metadata map[string]any

	// Duration is the wall-clock time of the whole pipeline.
	Duration time.Duration
}

// RestoreResult is the outcome of a successful restore.
type RestoreResult struct {
	// RestorePath is the expanded target folder the archive was
	// extracted into.
	RestorePath string

	// SafetyArchive is the pre-restore snapshot, or nil when the target
	// folder was absent or empty (nothing to protect).
	SafetyArchive *archive.Archive

	// Metadata holds keys contributed by the post-restore hook. Never nil.
	Metadata map[string]any

	// Duration is the wall-clock time of the whole pipeline.
	Duration time.Duration
}

// Operation is the record of one pipeline invocation handed to a Recorder.
type Operation struct {
	Kind        string // "backup" or "restore"
	ProfileID   string
	GameName    string
	ArchivePath string
	FailedStep  Step // empty on success
	Error       string
	Duration    time.Duration
	StartedAt   time.Time
	Metadata    map[string]any
}

// Recorder persists operation outcomes. Recording is best-effort: the
// engine logs a recorder failure but never fails the pipeline over it.
type Recorder interface {
	Record(op Operation) error
}
