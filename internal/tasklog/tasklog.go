// Package tasklog records one markdown file per AI-assisted work
// session: created once, appended to as work proceeds, archived and
// restored without ever being rewritten retroactively.
package tasklog

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// sectionOrder is the fixed header sequence every task file follows.
var sectionOrder = []string{"Date", "Prompt", "Actions Taken", "Files Changed", "Outcome", "Notes"}

// Create writes a new task file under dir for prompt, using the next
// free ordinal for today's local date, and returns the parsed record.
func Create(dir, prompt string) (model.TaskRecord, error) {
	now := time.Now()

	ordinal, err := NextOrdinal(dir, now)
	if err != nil {
		return model.TaskRecord{}, fmt.Errorf("%w: determine ordinal: %w", airerr.ErrPath, err)
	}

	slug := Slugify(prompt)
	path := TaskPath(dir, now, ordinal, slug)

	content := renderTemplate(now, prompt)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.TaskRecord{}, fmt.Errorf("%w: create %s: %w", airerr.ErrPath, dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // task files are not sensitive.
		return model.TaskRecord{}, fmt.Errorf("%w: write task file: %w", airerr.ErrPath, err)
	}

	return Parse(path)
}

func renderTemplate(date time.Time, prompt string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Date\n%s\n\n", date.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "## Prompt\n%s\n\n", prompt)
	b.WriteString("## Actions Taken\n\n")
	b.WriteString("## Files Changed\n\n")
	b.WriteString("## Outcome\n\n")
	b.WriteString("## Notes\n")

	return b.String()
}

// AppendToSection inserts text at the end of header's content, ahead
// of the next header (or end of file), leaving every previously
// written line untouched — the file's logical "append", since the
// fixed section layout means a literal byte-append would land in the
// wrong section once later sections exist.
func AppendToSection(path, header, text string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read task file: %w", airerr.ErrPath, err)
	}

	lines := strings.Split(string(raw), "\n")

	headerLine := "## " + header

	start := -1

	for i, line := range lines {
		if strings.TrimRight(line, " ") == headerLine {
			start = i

			break
		}
	}

	if start == -1 {
		return fmt.Errorf("%w: task file has no %q section", airerr.ErrValidation, header)
	}

	end := len(lines)

	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "## ") {
			end = i

			break
		}
	}

	insertion := make([]string, 0, end-start+1)
	insertion = append(insertion, lines[:end]...)

	if end > start+1 && strings.TrimSpace(lines[end-1]) != "" {
		insertion = append(insertion, "")
	}

	insertion = append(insertion, text)
	insertion = append(insertion, lines[end:]...)

	if err := os.WriteFile(path, []byte(strings.Join(insertion, "\n")), 0o644); err != nil { //nolint:gosec // task files are not sensitive.
		return fmt.Errorf("%w: rewrite task file: %w", airerr.ErrPath, err)
	}

	return nil
}

// Parse reads path and decodes it into a TaskRecord, classifying its
// Outcome from the leading glyph in the Outcome section.
func Parse(path string) (model.TaskRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the task directory listing, not untrusted input.
	if err != nil {
		return model.TaskRecord{}, fmt.Errorf("%w: open task file: %w", airerr.ErrPath, err)
	}
	defer f.Close()

	sections := make(map[string]*strings.Builder, len(sectionOrder))
	for _, name := range sectionOrder {
		sections[name] = &strings.Builder{}
	}

	var current *strings.Builder

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "## ") {
			header := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			if s, ok := sections[header]; ok {
				current = s
				continue
			}

			current = nil

			continue
		}

		if current != nil {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	if err := scanner.Err(); err != nil {
		return model.TaskRecord{}, fmt.Errorf("%w: scan task file: %w", airerr.ErrPath, err)
	}

	parsed, ok := ParseFilename(filepathBase(path))
	if !ok {
		return model.TaskRecord{}, fmt.Errorf("%w: %s is not a task filename", airerr.ErrValidation, path)
	}

	record := model.TaskRecord{
		Path:    path,
		Date:    strings.TrimSpace(sections["Date"].String()),
		Prompt:  strings.TrimSpace(sections["Prompt"].String()),
		Actions: strings.TrimSpace(sections["Actions Taken"].String()),
		Files:   strings.TrimSpace(sections["Files Changed"].String()),
		Notes:   strings.TrimSpace(sections["Notes"].String()),
		Slug:    parsed.Slug,
		Outcome: classifyOutcome(strings.TrimSpace(sections["Outcome"].String())),
	}

	return record, nil
}

func filepathBase(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx == -1 {
		return path
	}

	return path[idx+1:]
}

// classifyOutcome maps the Outcome section's leading glyph to a
// TaskOutcome, defaulting to in_progress when no recognized glyph
// leads the section (including an empty section).
func classifyOutcome(outcomeText string) model.TaskOutcome {
	switch {
	case strings.HasPrefix(outcomeText, "✅"):
		return model.OutcomeSuccess
	case strings.HasPrefix(outcomeText, "⏳"):
		return model.OutcomeInProgress
	case strings.HasPrefix(outcomeText, "⚠️"):
		return model.OutcomePartial
	case strings.HasPrefix(outcomeText, "❌"), strings.HasPrefix(outcomeText, "🚫"):
		return model.OutcomeBlocked
	default:
		return model.OutcomeInProgress
	}
}

// SortField selects List's ordering key.
type SortField string

// Recognized sort fields.
const (
	SortByDate   SortField = "date"
	SortByTitle  SortField = "title"
	SortByStatus SortField = "status"
)

// ListOptions filters and orders List's results.
type ListOptions struct {
	Status          model.TaskOutcome // empty means no filter.
	Search          string            // substring match against Prompt/Actions/Notes, case-insensitive.
	Sort            SortField
	IncludeArchived bool
}

// List reads every task file under tasksDir (and, if requested, the
// archive tree beneath it), parses each into a TaskRecord, and
// returns the ones matching opts in the requested order.
func List(tasksDir string, opts ListOptions) ([]model.TaskRecord, error) {
	paths, err := collectTaskFiles(tasksDir, opts.IncludeArchived)
	if err != nil {
		return nil, err
	}

	records := make([]model.TaskRecord, 0, len(paths))

	for _, p := range paths {
		record, parseErr := Parse(p)
		if parseErr != nil {
			continue
		}

		if opts.Status != "" && record.Outcome != opts.Status {
			continue
		}

		if opts.Search != "" && !matchesSearch(record, opts.Search) {
			continue
		}

		records = append(records, record)
	}

	sortRecords(records, opts.Sort)

	return records, nil
}

func matchesSearch(r model.TaskRecord, search string) bool {
	needle := strings.ToLower(search)

	haystacks := []string{r.Prompt, r.Actions, r.Notes}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}

	return false
}

func sortRecords(records []model.TaskRecord, field SortField) {
	switch field {
	case SortByTitle:
		sort.SliceStable(records, func(i, j int) bool { return records[i].Slug < records[j].Slug })
	case SortByStatus:
		sort.SliceStable(records, func(i, j int) bool { return records[i].Outcome < records[j].Outcome })
	case SortByDate, "":
		sort.SliceStable(records, func(i, j int) bool { return filenameDate(records[i]) < filenameDate(records[j]) })
	}
}

func filenameDate(r model.TaskRecord) string {
	parsed, ok := ParseFilename(filepathBase(r.Path))
	if !ok {
		return ""
	}

	return parsed.Date.Format(time.RFC3339)
}

func collectTaskFiles(tasksDir string, includeArchived bool) ([]string, error) {
	var paths []string

	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: list %s: %w", airerr.ErrPath, tasksDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if strings.HasSuffix(entry.Name(), ".md") {
			paths = append(paths, tasksDir+"/"+entry.Name())
		}
	}

	if !includeArchived {
		return paths, nil
	}

	archived, err := collectArchivedFiles(archiveDir(tasksDir))
	if err != nil {
		return paths, nil //nolint:nilerr // an unreadable/absent archive tree just means nothing more to add.
	}

	return append(paths, archived...), nil
}
