// Package git wraps the git binary for the persistence step of a stats
// run: open the working checkout, fix the author identity, stage every
// change, commit only when the tree is dirty, and push to the default
// branch.
//
// Repo methods shell out through stats/exec rather than linking a git
// library because the updater always runs inside a checkout where the
// git binary is available.
package git
