package tasklog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

func TestParseFilenameOrdinalForm(t *testing.T) {
	parsed, ok := ParseFilename("20260115-002-0930-fix-login-bug.md")
	require.True(t, ok)
	assert.False(t, parsed.IsLegacy)
	assert.Equal(t, 2, parsed.Ordinal)
	assert.Equal(t, "fix-login-bug", parsed.Slug)
	assert.Equal(t, 2026, parsed.Date.Year())
	assert.Equal(t, time.January, parsed.Date.Month())
	assert.Equal(t, 15, parsed.Date.Day())
	assert.Equal(t, 9, parsed.Date.Hour())
	assert.Equal(t, 30, parsed.Date.Minute())
}

func TestParseFilenameLegacyForm(t *testing.T) {
	parsed, ok := ParseFilename("20260115-0930-fix-login-bug.md")
	require.True(t, ok)
	assert.True(t, parsed.IsLegacy)
	assert.Equal(t, 0, parsed.Ordinal)
	assert.Equal(t, "fix-login-bug", parsed.Slug)
}

func TestParseFilenameRejectsUnrecognizedForm(t *testing.T) {
	_, ok := ParseFilename("not-a-task-file.md")
	assert.False(t, ok)
}

func TestFormatFilenameRoundTrip(t *testing.T) {
	date := time.Date(2026, time.March, 4, 14, 5, 0, 0, time.Local)

	name := FormatFilename(date, 3, "refactor-cache")
	assert.Equal(t, "20260304-003-1405-refactor-cache.md", name)

	parsed, ok := ParseFilename(name)
	require.True(t, ok)
	assert.Equal(t, 3, parsed.Ordinal)
	assert.Equal(t, "refactor-cache", parsed.Slug)
}

func TestNextOrdinalDefaultsToOneOnMissingDir(t *testing.T) {
	ordinal, err := NextOrdinal(filepath.Join(t.TempDir(), "missing"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, ordinal)
}

func TestNextOrdinalSequencesWithinOneDay(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.Local)

	for i := 1; i <= 3; i++ {
		ordinal, err := NextOrdinal(dir, date)
		require.NoError(t, err)
		require.Equal(t, i, ordinal)

		name := FormatFilename(date, ordinal, "task")
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
}

func TestNextOrdinalIgnoresLegacyAndOtherDays(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.Local)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260601-0900-legacy.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260602-001-0900-other-day.md"), []byte("x"), 0o644))

	ordinal, err := NextOrdinal(dir, date)
	require.NoError(t, err)
	assert.Equal(t, 1, ordinal)
}

func TestSlugifyLowercasesAndLimitsWords(t *testing.T) {
	slug := Slugify("Fix the Login Bug that Breaks OAuth Refresh Tokens Always")
	assert.Equal(t, "fix-the-login-bug-that-breaks", slug)
}

func TestSlugifyFallsBackToTaskWhenEmpty(t *testing.T) {
	assert.Equal(t, "task", Slugify("!!!"))
}

func TestCreateAndParseRoundTrip(t *testing.T) {
	dir := t.TempDir()

	record, err := Create(dir, "Investigate flaky CI run")
	require.NoError(t, err)
	assert.Equal(t, "investigate-flaky-ci-run", record.Slug)
	assert.Equal(t, model.OutcomeInProgress, record.Outcome)
	assert.Empty(t, record.Actions)

	reparsed, err := Parse(record.Path)
	require.NoError(t, err)
	assert.Equal(t, record.Prompt, reparsed.Prompt)
	assert.Equal(t, record.Date, reparsed.Date)
}

func TestAppendToSectionInsertsBeforeNextHeaderWithoutDisturbingPriorContent(t *testing.T) {
	dir := t.TempDir()

	record, err := Create(dir, "Add retry logic")
	require.NoError(t, err)

	require.NoError(t, AppendToSection(record.Path, "Actions Taken", "- wrote a backoff helper"))
	require.NoError(t, AppendToSection(record.Path, "Actions Taken", "- added a unit test"))
	require.NoError(t, AppendToSection(record.Path, "Files Changed", "- internal/retry/backoff.go"))

	reparsed, err := Parse(record.Path)
	require.NoError(t, err)
	assert.Contains(t, reparsed.Actions, "wrote a backoff helper")
	assert.Contains(t, reparsed.Actions, "added a unit test")
	assert.Contains(t, reparsed.Files, "internal/retry/backoff.go")
	assert.Equal(t, "Add retry logic", reparsed.Prompt)
}

func TestAppendToSectionErrorsOnUnknownHeader(t *testing.T) {
	dir := t.TempDir()

	record, err := Create(dir, "Something")
	require.NoError(t, err)

	err = AppendToSection(record.Path, "Does Not Exist", "text")
	assert.Error(t, err)
}

func TestClassifyOutcomeRecognizesAllGlyphs(t *testing.T) {
	cases := map[string]model.TaskOutcome{
		"✅ done":                     model.OutcomeSuccess,
		"⏳ still working":            model.OutcomeInProgress,
		"⚠️ partially done":          model.OutcomePartial,
		"❌ failed":                   model.OutcomeBlocked,
		"🚫 blocked on access":        model.OutcomeBlocked,
		"":                           model.OutcomeInProgress,
		"no glyph at all, just text": model.OutcomeInProgress,
	}

	for text, want := range cases {
		assert.Equal(t, want, classifyOutcome(text), "text=%q", text)
	}
}

func TestListFiltersByStatusAndSearch(t *testing.T) {
	dir := t.TempDir()

	r1, err := Create(dir, "Fix login bug")
	require.NoError(t, err)
	require.NoError(t, AppendToSection(r1.Path, "Outcome", "✅ shipped"))

	r2, err := Create(dir, "Investigate cache eviction")
	require.NoError(t, err)
	require.NoError(t, AppendToSection(r2.Path, "Outcome", "❌ gave up"))

	records, err := List(dir, ListOptions{Status: model.OutcomeSuccess})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fix-login-bug", records[0].Slug)

	records, err = List(dir, ListOptions{Search: "cache"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "investigate-cache-eviction", records[0].Slug)
}

func TestListSortsByDateByDefaultUsingFilenameNotMtime(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, time.July, 1, 9, 0, 0, 0, time.Local)

	later := FormatFilename(date, 1, "first")
	require.NoError(t, os.WriteFile(filepath.Join(dir, later), []byte(renderTemplate(date, "first")), 0o644))

	earlierClockTime := date.Add(-time.Hour)
	earlier := FormatFilename(earlierClockTime, 1, "second")
	require.NoError(t, os.WriteFile(filepath.Join(dir, earlier), []byte(renderTemplate(earlierClockTime, "second")), 0o644))

	// Touch mtimes in the opposite order of the filename dates, so a
	// correct implementation must ignore mtime entirely.
	now := time.Now()
	require.NoError(t, os.Chtimes(filepath.Join(dir, later), now, now))
	require.NoError(t, os.Chtimes(filepath.Join(dir, earlier), now.Add(time.Minute), now.Add(time.Minute)))

	records, err := List(dir, ListOptions{Sort: SortByDate})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second", records[0].Slug)
	assert.Equal(t, "first", records[1].Slug)
}

func TestArchiveByMonthMovesFileAndRegeneratesIndex(t *testing.T) {
	dir := t.TempDir()

	record, err := Create(dir, "Old work")
	require.NoError(t, err)

	moved, err := Archive(dir, ArchiveOptions{All: true, Strategy: StrategyByMonth})
	require.NoError(t, err)
	require.Len(t, moved, 1)

	_, statErr := os.Stat(record.Path)
	assert.True(t, os.IsNotExist(statErr))

	parsed, _ := ParseFilename(filepath.Base(record.Path))
	archived := filepath.Join(archiveDir(dir), parsed.Date.Format("2006-01"), filepath.Base(record.Path))
	_, statErr = os.Stat(archived)
	require.NoError(t, statErr)

	index, err := os.ReadFile(filepath.Join(archiveDir(dir), "ARCHIVE.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Old Work")
}

func TestArchiveDryRunDoesNotMoveFiles(t *testing.T) {
	dir := t.TempDir()

	record, err := Create(dir, "Keep me put")
	require.NoError(t, err)

	moved, err := Archive(dir, ArchiveOptions{All: true, Strategy: StrategyByMonth, DryRun: true})
	require.NoError(t, err)
	require.Len(t, moved, 1)

	_, statErr := os.Stat(record.Path)
	require.NoError(t, statErr)
}

func TestArchiveByQuarterGroupsCorrectly(t *testing.T) {
	dir := t.TempDir()

	record, err := Create(dir, "Quarter task")
	require.NoError(t, err)

	_, err = Archive(dir, ArchiveOptions{All: true, Strategy: StrategyByQuarter})
	require.NoError(t, err)

	parsed, _ := ParseFilename(filepath.Base(record.Path))
	quarter := (int(parsed.Date.Month())-1)/3 + 1
	wantDir := fmt.Sprintf("%d-Q%d", parsed.Date.Year(), quarter)

	_, statErr := os.Stat(filepath.Join(archiveDir(dir), wantDir, filepath.Base(record.Path)))
	assert.NoError(t, statErr)
}

func TestRestoreMovesFileBackAndRegeneratesIndex(t *testing.T) {
	dir := t.TempDir()

	record, err := Create(dir, "Round trip task")
	require.NoError(t, err)

	before, err := os.ReadFile(record.Path)
	require.NoError(t, err)

	_, err = Archive(dir, ArchiveOptions{All: true, Strategy: StrategyFlat})
	require.NoError(t, err)

	idPrefix := filepath.Base(record.Path)[:8]

	restoredPath, err := Restore(dir, idPrefix)
	require.NoError(t, err)

	after, err := os.ReadFile(restoredPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestArchiveIndexIsDeterministicAcrossRegeneration(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(dir, "Task A")
	require.NoError(t, err)
	_, err = Create(filepath.Join(dir), "Task B")
	require.NoError(t, err)

	_, err = Archive(dir, ArchiveOptions{All: true, Strategy: StrategyByMonth})
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(archiveDir(dir), "ARCHIVE.md"))
	require.NoError(t, err)

	require.NoError(t, regenerateArchiveIndex(dir))

	second, err := os.ReadFile(filepath.Join(archiveDir(dir), "ARCHIVE.md"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestThreeSameDayTasksGetSequentialOrdinals(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 3; i++ {
		_, err := Create(dir, "same day task")
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var ordinals []int

	for _, e := range entries {
		parsed, ok := ParseFilename(e.Name())
		if !ok {
			continue
		}

		ordinals = append(ordinals, parsed.Ordinal)
	}

	assert.ElementsMatch(t, []int{1, 2, 3}, ordinals)
}

func TestStartFinishLoadAgent(t *testing.T) {
	dir := t.TempDir()

	handle, err := StartAgent(dir, "air", []string{"analyze", "svc-a"}, 4242)
	require.NoError(t, err)
	assert.Equal(t, model.AgentRunning, handle.Status)
	assert.NotEmpty(t, handle.ID)

	loaded, err := LoadAgent(dir, handle.ID)
	require.NoError(t, err)
	assert.Equal(t, handle.Command, loaded.Command)

	finished, err := FinishAgent(dir, handle.ID, model.AgentComplete)
	require.NoError(t, err)
	assert.Equal(t, model.AgentComplete, finished.Status)

	all, err := ListAgents(dir)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.AgentComplete, all[0].Status)
}

func TestSummaryMarkdownIncludesCounts(t *testing.T) {
	dir := t.TempDir()

	r1, err := Create(dir, "Task one")
	require.NoError(t, err)
	require.NoError(t, AppendToSection(r1.Path, "Outcome", "✅ done"))

	_, err = Create(dir, "Task two")
	require.NoError(t, err)

	out, err := Summary(dir, SummaryOptions{Format: SummaryMarkdown})
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 2")
	assert.Contains(t, out, "success: 1")
}

func TestSummaryJSONIsValidStructure(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(dir, "Task one")
	require.NoError(t, err)

	out, err := Summary(dir, SummaryOptions{Format: SummaryJSON})
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 1`)
}

func TestSummaryRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()

	_, err := Summary(dir, SummaryOptions{Format: "nonsense"})
	assert.Error(t, err)
}
