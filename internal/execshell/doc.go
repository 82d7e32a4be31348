// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging, secret redaction, and
// lifecycle events, turning non-zero exits into CommandFailedError values that
// keep the tool's standard error. OSCommandRunner is the os/exec-backed default.
package execshell
