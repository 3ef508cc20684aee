package workspace

import "github.com/sergi/go-diff/diffmatchpatch"

// renderConfigDiff produces a human-readable unified diff between a
// config file's before/after JSON text, for validate --fix's report.
// Machine-readable (JSON) output bypasses this entirely.
func renderConfigDiff(before, after string) string {
	dmp := diffmatchpatch.New()

	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return dmp.DiffPrettyText(diffs)
}
