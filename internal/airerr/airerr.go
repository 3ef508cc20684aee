// Package airerr centralizes the error taxonomy shared across
// air-toolkit's components. Each kind is a sentinel error; call sites
// wrap it with fmt.Errorf("%w: ...", Kind) to attach detail, matching
// the wrapping idiom used throughout this codebase.
package airerr

import "errors"

// Error kinds, not concrete types: components wrap one of these
// sentinels rather than defining their own per-package error value, so
// callers can classify a failure with errors.Is regardless of which
// component produced it.
var (
	// ErrConfig covers a missing, malformed, or schema-violating config.
	ErrConfig = errors.New("config error")

	// ErrPath covers a referenced filesystem entity that is missing or
	// not a directory.
	ErrPath = errors.New("path error")

	// ErrValidation covers a structural invariant violation: duplicate
	// names, dangling symlinks, and the like.
	ErrValidation = errors.New("validation error")

	// ErrGit covers git operation failures.
	ErrGit = errors.New("git error")

	// ErrAnalyzer covers an analyzer raising during scanning. It is
	// always contained: the orchestrator converts it into a failed
	// AnalyzerResult rather than propagating it.
	ErrAnalyzer = errors.New("analyzer error")

	// ErrWorker covers subprocess spawn or IPC parse failures. It is
	// contained: the pool degrades to sequential in-process execution.
	ErrWorker = errors.New("worker error")

	// ErrCache covers cache read/write failures. It is contained: a
	// failed read is treated as a miss, a failed write is ignored.
	ErrCache = errors.New("cache error")

	// ErrTimeout covers a per-unit analysis timeout. It is contained.
	ErrTimeout = errors.New("timeout error")
)

// Hint returns a short actionable suggestion for a user-facing error
// kind, or the empty string if none applies.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "Hint: run `air validate --fix`"
	case errors.Is(err, ErrConfig):
		return "Hint: check .air/air-config.json for syntax or schema errors"
	case errors.Is(err, ErrPath):
		return "Hint: confirm the linked path exists and is a directory"
	default:
		return ""
	}
}
