// Package engine orchestrates the backup and restore pipelines.
//
// # Backup
//
// [Engine.Backup] runs resolve -> pre_hook -> archive -> post_hook. The
// profile's contracted save path is expanded and must exist; the plugin's
// pre-processing hook may redirect the effective source; the folder is
// packed into a timestamped zip; keys added by the post-processing hook
// become result metadata.
//
// # Restore
//
// [Engine.Restore] runs pre_hook -> safety_archive -> clear -> extract ->
// post_hook. The safety archive is the engine's central guarantee: a restore
// can never destroy data that was not first snapshotted. Whenever the target
// folder exists and is non-empty, a safety archive is written, synced, and
// renamed into place before the optional clear step deletes anything. If the
// safety archive fails, the target folder is left unmodified.
//
// # Failure Reporting
//
// Any step failure aborts the remaining steps and surfaces as a [StepError]
// naming the step, wrapping the taxonomy sentinel that classifies the cause.
// Pipelines are never retried automatically, and a failure aborts only the
// current invocation.
//
// # Concurrency
//
// Operations for the same profile are serialized on a per-profile lock.
// Different profiles touch disjoint storage subtrees and run concurrently
// without coordination. Each pipeline is synchronous from the caller's
// perspective; there is no mid-extraction cancellation.
package engine
