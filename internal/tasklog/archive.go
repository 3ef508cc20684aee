package tasklog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// ArchiveStrategy selects how archived task files are grouped into
// subdirectories under .air/tasks/archive/.
type ArchiveStrategy string

// Recognized archive strategies.
const (
	StrategyByMonth   ArchiveStrategy = "by-month"
	StrategyByQuarter ArchiveStrategy = "by-quarter"
	StrategyFlat      ArchiveStrategy = "flat"
)

// ArchiveOptions selects which active task files Archive moves and
// how it groups them.
type ArchiveOptions struct {
	Selectors []string // id (filename) prefixes.
	All       bool
	Before    *time.Time
	Strategy  ArchiveStrategy
	DryRun    bool
}

const archiveDirName = "archive"

// promptPreviewLength is how much of a task's Prompt ARCHIVE.md shows
// per entry, per spec.md §4.J.
const promptPreviewLength = 100

func archiveDir(tasksDir string) string {
	return filepath.Join(tasksDir, archiveDirName)
}

// Archive moves every active task file in tasksDir matching opts'
// selectors into the archive tree, grouped by opts.Strategy, then
// regenerates ARCHIVE.md. DryRun reports what would move without
// touching the filesystem.
func Archive(tasksDir string, opts ArchiveOptions) ([]string, error) {
	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", airerr.ErrPath, tasksDir, err)
	}

	var moved []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		parsed, ok := ParseFilename(entry.Name())
		if !ok {
			continue
		}

		if !matchesArchiveSelection(entry.Name(), parsed, opts) {
			continue
		}

		if opts.DryRun {
			moved = append(moved, entry.Name())
			continue
		}

		dest := filepath.Join(archiveDir(tasksDir), archiveSubdir(opts.Strategy, parsed.Date), entry.Name())

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return moved, fmt.Errorf("%w: prepare archive dir: %w", airerr.ErrPath, err)
		}

		if err := os.Rename(filepath.Join(tasksDir, entry.Name()), dest); err != nil {
			return moved, fmt.Errorf("%w: archive %s: %w", airerr.ErrPath, entry.Name(), err)
		}

		moved = append(moved, entry.Name())
	}

	if !opts.DryRun && len(moved) > 0 {
		if err := regenerateArchiveIndex(tasksDir); err != nil {
			return moved, err
		}
	}

	return moved, nil
}

func matchesArchiveSelection(filename string, parsed ParsedFilename, opts ArchiveOptions) bool {
	if opts.All {
		return true
	}

	if opts.Before != nil && parsed.Date.Before(*opts.Before) {
		return true
	}

	for _, sel := range opts.Selectors {
		if strings.HasPrefix(filename, sel) {
			return true
		}
	}

	return false
}

func archiveSubdir(strategy ArchiveStrategy, date time.Time) string {
	switch strategy {
	case StrategyByQuarter:
		quarter := (int(date.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", date.Year(), quarter)
	case StrategyFlat:
		return ""
	case StrategyByMonth:
		return date.Format("2006-01")
	default:
		return date.Format("2006-01")
	}
}

// Restore moves the archived task file whose filename starts with
// idPrefix back to tasksDir and regenerates ARCHIVE.md.
func Restore(tasksDir, idPrefix string) (string, error) {
	root := archiveDir(tasksDir)

	var found string

	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // skip unreadable entries, keep walking.
		}

		if strings.HasPrefix(d.Name(), idPrefix) && strings.HasSuffix(d.Name(), ".md") {
			found = path
		}

		return nil
	})
	if walkErr != nil {
		return "", fmt.Errorf("%w: search archive: %w", airerr.ErrPath, walkErr)
	}

	if found == "" {
		return "", fmt.Errorf("%w: no archived task matches %q", airerr.ErrValidation, idPrefix)
	}

	dest := filepath.Join(tasksDir, filepath.Base(found))

	if err := os.Rename(found, dest); err != nil {
		return "", fmt.Errorf("%w: restore %s: %w", airerr.ErrPath, idPrefix, err)
	}

	if err := regenerateArchiveIndex(tasksDir); err != nil {
		return dest, err
	}

	return dest, nil
}

func collectArchivedFiles(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") || d.Name() == "ARCHIVE.md" {
			return nil
		}

		paths = append(paths, path)

		return nil
	})

	return paths, err
}

type archiveEntry struct {
	period string
	record model.TaskRecord
}

// regenerateArchiveIndex rebuilds ARCHIVE.md from the files actually
// present under the archive tree, grouped by their containing
// subdirectory, sorted deterministically so identical inputs always
// produce byte-identical output.
func regenerateArchiveIndex(tasksDir string) error {
	root := archiveDir(tasksDir)

	paths, err := collectArchivedFiles(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("%w: scan archive: %w", airerr.ErrPath, err)
	}

	entries := make([]archiveEntry, 0, len(paths))

	for _, p := range paths {
		record, parseErr := Parse(p)
		if parseErr != nil {
			continue
		}

		rel, relErr := filepath.Rel(root, filepath.Dir(p))
		if relErr != nil {
			rel = "."
		}

		entries = append(entries, archiveEntry{period: rel, record: record})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].period != entries[j].period {
			return entries[i].period < entries[j].period
		}

		return filenameDate(entries[i].record) < filenameDate(entries[j].record)
	})

	content := renderArchiveIndex(entries)

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("%w: prepare archive root: %w", airerr.ErrPath, err)
	}

	if err := os.WriteFile(filepath.Join(root, "ARCHIVE.md"), []byte(content), 0o644); err != nil { //nolint:gosec // summary index, not sensitive.
		return fmt.Errorf("%w: write ARCHIVE.md: %w", airerr.ErrPath, err)
	}

	return nil
}

func renderArchiveIndex(entries []archiveEntry) string {
	var b strings.Builder

	b.WriteString("# Archived Tasks\n")

	currentPeriod := ""

	for _, e := range entries {
		if e.period != currentPeriod {
			currentPeriod = e.period
			fmt.Fprintf(&b, "\n## %s\n\n", currentPeriod)
		}

		fmt.Fprintf(&b, "- **%s** (%s, %s): %s\n",
			titleFromSlug(e.record.Slug), e.record.Date, e.record.Outcome, previewPrompt(e.record.Prompt))
	}

	return b.String()
}

func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}

		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}

	return strings.Join(words, " ")
}

func previewPrompt(prompt string) string {
	r := []rune(prompt)
	if len(r) <= promptPreviewLength {
		return prompt
	}

	return string(r[:promptPreviewLength]) + "..."
}
