// Package pathutil provides portable save-path handling.
//
// Save locations differ between machines ("C:\Users\alice\Saved Games" vs
// "C:\Users\bob\Saved Games"), so profiles store paths in contracted form:
// the machine-specific prefix is replaced with an environment-variable token
// such as %USERPROFILE%. Contraction picks the longest environment value
// that prefixes the path; expansion substitutes current values back in.
//
// # Round Trip
//
// For any path reachable through a snapshot candidate,
//
//	Expand(env, Contract(env, p)) == p
//
// Contraction is lossy-safe: when no token matches, the literal absolute
// path is returned and remains valid. Expansion is total: unresolved tokens
// are left literal and surface later as failed existence checks rather than
// as errors here.
//
// # Environment Snapshots
//
// All functions operate on an explicit [Env] snapshot instead of the ambient
// process environment. Production code uses [Snapshot]; tests use [FromMap].
// [Env.WithVarsFile] merges extra tokens from an env-format file so users can
// define their own portable path variables.
package pathutil
