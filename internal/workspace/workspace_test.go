package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

func TestInitCreatesSkeletonAndConfig(t *testing.T) {
	root := t.TempDir()

	s, err := Init(root, "my-review", model.ModeMixed)
	require.NoError(t, err)

	for _, d := range []string{
		".air/tasks", ".air/agents", ".air/context", "repos",
		"analysis/reviews", "analysis/assessments", "analysis/improvements",
		"contributions",
	} {
		info, statErr := os.Stat(filepath.Join(root, d))
		require.NoError(t, statErr, d)
		assert.True(t, info.IsDir())
	}

	assert.Equal(t, "my-review", s.Config.Name)
	assert.Equal(t, configVersion, s.Config.Version)
	assert.Empty(t, s.Config.Resources.Review)
	assert.Empty(t, s.Config.Resources.Develop)

	_, err = os.Stat(filepath.Join(root, ".air", "air-config.json"))
	require.NoError(t, err)
}

func TestInitReviewModeSkipsContributions(t *testing.T) {
	root := t.TempDir()

	_, err := Init(root, "review-only", model.ModeReview)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(root, "contributions"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInitFailsIfAlreadyInitialized(t *testing.T) {
	root := t.TempDir()

	_, err := Init(root, "first", model.ModeReview)
	require.NoError(t, err)

	_, err = Init(root, "second", model.ModeReview)
	require.ErrorIs(t, err, airerr.ErrConfig)
}

func TestLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	_, err := Init(root, "my-review", model.ModeMixed)
	require.NoError(t, err)

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "my-review", loaded.Config.Name)
	assert.Equal(t, model.ModeMixed, loaded.Config.Mode)
}

func TestLoadRejectsUnknownTopLevelField(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".air"), dirPerm))

	raw := `{
		"version": "2.0.0", "name": "x", "mode": "review",
		"created": "2025-10-03T10:00:00Z",
		"resources": {"review": [], "develop": []},
		"goals": [],
		"unexpected_field": true
	}`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".air", "air-config.json"), []byte(raw), 0o644))

	_, err := Load(root)
	require.ErrorIs(t, err, airerr.ErrConfig)
}

func TestLinkAddCreatesSymlinkAndAppendsResource(t *testing.T) {
	root := t.TempDir()
	repoPath := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	resource, err := s.LinkAdd(LinkAddOptions{
		Path:         repoPath,
		Name:         "svc-a",
		Relationship: model.RelationshipReviewOnly,
		Type:         model.ResourceLibrary,
	})
	require.NoError(t, err)
	assert.Equal(t, "svc-a", resource.Name)
	assert.False(t, resource.Writable)

	target, err := filepath.EvalSymlinks(filepath.Join(root, "repos", "svc-a"))
	require.NoError(t, err)

	wantTarget, err := filepath.EvalSymlinks(repoPath)
	require.NoError(t, err)
	assert.Equal(t, wantTarget, target)

	assert.Len(t, s.Config.Resources.Review, 1)
}

func TestLinkAddContributorDefaultsWritable(t *testing.T) {
	root := t.TempDir()
	repoPath := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	resource, err := s.LinkAdd(LinkAddOptions{
		Path:         repoPath,
		Name:         "svc-dev",
		Relationship: model.RelationshipContributor,
	})
	require.NoError(t, err)
	assert.True(t, resource.Writable)
	assert.Len(t, s.Config.Resources.Develop, 1)
}

func TestLinkAddExplicitWritableFalseOverridesContributorDefault(t *testing.T) {
	root := t.TempDir()
	repoPath := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	explicitFalse := false

	resource, err := s.LinkAdd(LinkAddOptions{
		Path:             repoPath,
		Name:             "svc-dev",
		Relationship:     model.RelationshipContributor,
		WritableOverride: &explicitFalse,
	})
	require.NoError(t, err)
	assert.False(t, resource.Writable)
}

func TestLinkAddRejectsDuplicateName(t *testing.T) {
	root := t.TempDir()
	repoPath := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	_, err = s.LinkAdd(LinkAddOptions{Path: repoPath, Name: "svc-a", Relationship: model.RelationshipReviewOnly})
	require.NoError(t, err)

	_, err = s.LinkAdd(LinkAddOptions{Path: repoPath, Name: "svc-a", Relationship: model.RelationshipReviewOnly})
	require.ErrorIs(t, err, ErrNameTaken)
}

func TestLinkAddRejectsNonexistentPath(t *testing.T) {
	root := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	_, err = s.LinkAdd(LinkAddOptions{Path: filepath.Join(root, "nope"), Name: "svc-a"})
	require.ErrorIs(t, err, airerr.ErrPath)
}

func TestLinkAddRejectsFileNotDirectory(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "plain-file")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	_, err = s.LinkAdd(LinkAddOptions{Path: filePath, Name: "svc-a"})
	require.ErrorIs(t, err, airerr.ErrPath)
}

func TestLinkRemoveDeletesSymlinkByDefault(t *testing.T) {
	root := t.TempDir()
	repoPath := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	_, err = s.LinkAdd(LinkAddOptions{Path: repoPath, Name: "svc-a", Relationship: model.RelationshipReviewOnly})
	require.NoError(t, err)

	require.NoError(t, s.LinkRemove("svc-a", false))

	assert.Empty(t, s.Config.Resources.Review)

	_, lstatErr := os.Lstat(filepath.Join(root, "repos", "svc-a"))
	assert.True(t, os.IsNotExist(lstatErr))
}

func TestLinkRemoveKeepsSymlinkWhenRequested(t *testing.T) {
	root := t.TempDir()
	repoPath := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	_, err = s.LinkAdd(LinkAddOptions{Path: repoPath, Name: "svc-a", Relationship: model.RelationshipReviewOnly})
	require.NoError(t, err)

	require.NoError(t, s.LinkRemove("svc-a", true))

	_, lstatErr := os.Lstat(filepath.Join(root, "repos", "svc-a"))
	assert.NoError(t, lstatErr)
}

func TestLinkRemoveUnknownNameErrors(t *testing.T) {
	root := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	err = s.LinkRemove("nope", false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLinkListReportsValidBrokenMissing(t *testing.T) {
	root := t.TempDir()
	repoPath := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	_, err = s.LinkAdd(LinkAddOptions{Path: repoPath, Name: "valid-one", Relationship: model.RelationshipReviewOnly})
	require.NoError(t, err)

	brokenTarget := t.TempDir()
	_, err = s.LinkAdd(LinkAddOptions{Path: brokenTarget, Name: "broken-one", Relationship: model.RelationshipReviewOnly})
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(brokenTarget))

	s.Config.Resources.Review = append(s.Config.Resources.Review, model.Resource{
		Name: "missing-one", Path: repoPath, Relationship: model.RelationshipReviewOnly,
	})

	statuses := s.LinkList()

	byName := make(map[string]LinkStatus, len(statuses))
	for _, st := range statuses {
		byName[st.Resource.Name] = st.Status
	}

	assert.Equal(t, LinkValid, byName["valid-one"])
	assert.Equal(t, LinkBroken, byName["broken-one"])
	assert.Equal(t, LinkMissing, byName["missing-one"])
}

func TestValidateFixRepairsBrokenAndMissingLinks(t *testing.T) {
	root := t.TempDir()
	repoPath := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	_, err = s.LinkAdd(LinkAddOptions{Path: repoPath, Name: "svc-a", Relationship: model.RelationshipReviewOnly})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "repos", "svc-a")))

	report, err := s.Validate(true)
	require.NoError(t, err)
	assert.Contains(t, report.Missing, "svc-a")
	assert.Contains(t, report.Repaired, "svc-a")

	status := s.linkStatus(*s.findResource("svc-a"))
	assert.Equal(t, LinkValid, status)
}

func TestValidateFixReportsResidualWhenTargetGone(t *testing.T) {
	root := t.TempDir()
	repoPath := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	_, err = s.LinkAdd(LinkAddOptions{Path: repoPath, Name: "svc-a", Relationship: model.RelationshipReviewOnly})
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(repoPath))
	require.NoError(t, os.Remove(filepath.Join(root, "repos", "svc-a")))

	report, err := s.Validate(true)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Residual)
	assert.Empty(t, report.Repaired)
}

func TestUpgradeAdoptsOrphanedSymlinksWhenForced(t *testing.T) {
	root := t.TempDir()
	orphanTarget := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	require.NoError(t, os.Symlink(orphanTarget, filepath.Join(root, "repos", "orphan")))

	report, err := s.Upgrade(true)
	require.NoError(t, err)
	assert.Contains(t, report.Adopted, "orphan")
	assert.NotNil(t, s.findResource("orphan"))
}

func TestUpgradeWithoutForceLeavesOrphansAlone(t *testing.T) {
	root := t.TempDir()
	orphanTarget := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	require.NoError(t, os.Symlink(orphanTarget, filepath.Join(root, "repos", "orphan")))

	report, err := s.Upgrade(false)
	require.NoError(t, err)
	assert.Empty(t, report.Adopted)
}

func TestUpgradeBootstrapsMissingConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "repos"), dirPerm))

	s := &Store{Root: root}

	report, err := s.Upgrade(false)
	require.NoError(t, err)
	assert.True(t, report.Migrated)

	_, statErr := os.Stat(filepath.Join(root, ".air", "air-config.json"))
	require.NoError(t, statErr)
}

func TestUpgradeMigratesLegacyConfig(t *testing.T) {
	root := t.TempDir()

	s, err := Init(root, "ws", model.ModeMixed)
	require.NoError(t, err)

	legacyConfig := s.Config
	legacyConfig.Name = "legacy"

	encoded, err := json.MarshalIndent(legacyConfig, "", "  ")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, ".air", "air-config.json")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "air-config.json"), encoded, 0o644))

	fresh := &Store{Root: root}

	_, err = fresh.Upgrade(false)
	require.NoError(t, err)

	_, legacyStatErr := os.Stat(filepath.Join(root, "air-config.json"))
	assert.True(t, os.IsNotExist(legacyStatErr))

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "legacy", loaded.Config.Name)
}

func TestStorePathAbsoluteInputStoredAsIs(t *testing.T) {
	t.Setenv("GIT_REPOS_PATH", "")
	os.Unsetenv("GIT_REPOS_PATH")

	assert.Equal(t, "/abs/path", storePath("/abs/path"))
}

func TestStorePathRelativeUnderReposRootPreservesRelativeForm(t *testing.T) {
	root := t.TempDir()
	t.Setenv("GIT_REPOS_PATH", root)

	assert.Equal(t, "svc-a", storePath("svc-a"))

	resolved, err := resolvePath("svc-a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "svc-a"), resolved)
}

func TestResolvePathFallsBackToCWDWithoutReposRoot(t *testing.T) {
	os.Unsetenv("GIT_REPOS_PATH")

	cwd, err := os.Getwd()
	require.NoError(t, err)

	resolved, err := resolvePath("relative/path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "relative/path"), resolved)
}
