// Package workspace owns a project's WorkspaceConfig, materializes
// the repos/<name> symlinks it describes, and validates/repairs the
// on-disk structure against it.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/cache"
	"github.com/LiveData-Inc/air-toolkit/internal/classify"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// configFileName is the workspace config's leaf name under .air/.
const configFileName = "air-config.json"

// configVersion is written into every newly initialized config.
const configVersion = "2.0.0"

// dirPerm is used for every directory this package creates.
const dirPerm = 0o755

// ErrNameTaken indicates link_add was given a name already used by
// another resource in either the review or develop list.
var ErrNameTaken = errors.New("resource name already in use")

// ErrNotFound indicates an operation referenced a resource name the
// config does not contain.
var ErrNotFound = errors.New("resource not found")

// Store owns one workspace's WorkspaceConfig and the filesystem layout
// rooted at Root.
type Store struct {
	Root   string
	Config model.WorkspaceConfig
}

func (s *Store) configPath() string {
	return filepath.Join(s.Root, ".air", configFileName)
}

func (s *Store) reposDir() string {
	return filepath.Join(s.Root, "repos")
}

// Init creates the directory skeleton for a new workspace at root and
// persists an empty config. It fails if a config already exists.
func Init(root, name string, mode model.WorkspaceMode) (*Store, error) {
	s := &Store{Root: root}

	if _, err := os.Stat(s.configPath()); err == nil {
		return nil, fmt.Errorf("%w: %s already initialized", airerr.ErrConfig, root)
	}

	dirs := []string{
		filepath.Join(root, ".air", "tasks"),
		filepath.Join(root, ".air", "agents"),
		filepath.Join(root, ".air", "context"),
		filepath.Join(root, "repos"),
		filepath.Join(root, "analysis", "reviews"),
		filepath.Join(root, "analysis", "assessments"),
		filepath.Join(root, "analysis", "improvements"),
	}

	if mode != model.ModeReview {
		dirs = append(dirs, filepath.Join(root, "contributions"))
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d, dirPerm); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", airerr.ErrPath, d, err)
		}
	}

	s.Config = model.WorkspaceConfig{
		Version: configVersion,
		Name:    name,
		Mode:    mode,
		Created: time.Now().UTC(),
		Resources: model.ResourceSet{
			Review:  []model.Resource{},
			Develop: []model.Resource{},
		},
		Goals: []string{},
	}

	if err := s.save(); err != nil {
		return nil, err
	}

	return s, nil
}

// Load reads an existing workspace's config from root, migrating a
// legacy project-root air-config.json into .air/ first if present and
// bootstrapping a fresh config if neither location has one.
func Load(root string) (*Store, error) {
	s := &Store{Root: root}

	if err := migrateLegacyConfig(root); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.configPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no workspace config at %s", airerr.ErrConfig, s.configPath())
	}

	if err != nil {
		return nil, fmt.Errorf("%w: read config: %w", airerr.ErrConfig, err)
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(raw, &s.Config); err != nil {
		return nil, fmt.Errorf("%w: decode config: %w", airerr.ErrConfig, err)
	}

	return s, nil
}

// legacyConfigName is the pre-.air project-root config location.
const legacyConfigName = "air-config.json"

func migrateLegacyConfig(root string) error {
	legacyPath := filepath.Join(root, legacyConfigName)

	if _, err := os.Stat(legacyPath); err != nil {
		return nil
	}

	targetPath := filepath.Join(root, ".air", configFileName)
	if _, err := os.Stat(targetPath); err == nil {
		return nil // .air/ config already wins; leave the legacy file alone.
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), dirPerm); err != nil {
		return fmt.Errorf("%w: prepare .air/: %w", airerr.ErrPath, err)
	}

	if err := os.Rename(legacyPath, targetPath); err != nil {
		return fmt.Errorf("%w: migrate legacy config: %w", airerr.ErrConfig, err)
	}

	return nil
}

// save serializes the config, validates it against the schema, and
// writes it atomically under the advisory lock.
func (s *Store) save() error {
	release, err := acquireLock(s.configPath())
	if err != nil {
		return err
	}
	defer release()

	encoded, err := json.MarshalIndent(s.Config, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal config: %w", airerr.ErrConfig, err)
	}

	if err := validateSchema(encoded); err != nil {
		return err
	}

	if err := cache.AtomicWriteFile(s.configPath(), encoded); err != nil {
		return fmt.Errorf("%w: write config: %w", airerr.ErrConfig, err)
	}

	return nil
}

// LinkAddOptions configures link_add. WritableOverride, if non-nil,
// pins Writable regardless of the contributor-default rule;
// WritableOverride==&false is the explicit "--writable false" case.
type LinkAddOptions struct {
	Path             string
	Name             string
	Relationship     model.Relationship
	Type             model.ResourceType
	WritableOverride *bool
	Classify         bool
}

// LinkAdd validates path and name, creates the repos/<name> symlink,
// runs the Classifier when requested, and appends the resulting
// Resource to the config.
func (s *Store) LinkAdd(opts LinkAddOptions) (model.Resource, error) {
	resolved, err := resolveAndCheckDir(opts.Path)
	if err != nil {
		return model.Resource{}, err
	}

	if s.findResource(opts.Name) != nil {
		return model.Resource{}, fmt.Errorf("%w: %s", ErrNameTaken, opts.Name)
	}

	writable := opts.WritableOverride != nil && *opts.WritableOverride
	if opts.Relationship == model.RelationshipContributor && opts.WritableOverride == nil {
		writable = true
	}

	resource := model.Resource{
		Name:          opts.Name,
		Path:          storePath(opts.Path),
		Type:          opts.Type,
		Relationship:  opts.Relationship,
		Writable:      writable,
		Outputs:       []string{},
		Contributions: []model.Contribution{},
		LinkedAt:      time.Now().UTC(),
	}

	if opts.Classify {
		if result, classifyErr := classify.Classify(resolved); classifyErr == nil {
			resource.Type = result.Type
			resource.TechnologyStack = result.TechnologyStack
		}
	}

	if err := os.Symlink(resolved, filepath.Join(s.reposDir(), opts.Name)); err != nil {
		return model.Resource{}, fmt.Errorf("%w: create symlink: %w", airerr.ErrPath, err)
	}

	s.appendResource(resource)

	if err := s.save(); err != nil {
		return model.Resource{}, err
	}

	return resource, nil
}

func resolveAndCheckDir(input string) (string, error) {
	resolved, err := resolvePath(storePath(input))
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", airerr.ErrPath, input, err)
	}

	info, statErr := os.Stat(resolved)
	if statErr != nil {
		return "", fmt.Errorf("%w: %s does not exist", airerr.ErrPath, resolved)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", airerr.ErrPath, resolved)
	}

	return resolved, nil
}

// LinkRemove deletes name from the config, also removing its symlink
// unless keepLink is set.
func (s *Store) LinkRemove(name string, keepLink bool) error {
	if s.findResource(name) == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	s.removeResource(name)

	if !keepLink {
		symlinkPath := filepath.Join(s.reposDir(), name)
		if err := os.Remove(symlinkPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: remove symlink: %w", airerr.ErrPath, err)
		}
	}

	return s.save()
}

// ResourceStatus pairs a resource with its computed link status.
type ResourceStatus struct {
	Resource model.Resource
	Status   LinkStatus
}

// LinkStatus classifies a resource's repos/<name> symlink state.
type LinkStatus string

// Recognized link statuses.
const (
	LinkValid   LinkStatus = "valid"
	LinkBroken  LinkStatus = "broken"
	LinkMissing LinkStatus = "missing"
)

// LinkList returns every resource with its computed status.
func (s *Store) LinkList() []ResourceStatus {
	all := s.allResources()
	statuses := make([]ResourceStatus, 0, len(all))

	for _, r := range all {
		statuses = append(statuses, ResourceStatus{Resource: r, Status: s.linkStatus(r)})
	}

	return statuses
}

func (s *Store) linkStatus(r model.Resource) LinkStatus {
	symlinkPath := filepath.Join(s.reposDir(), r.Name)

	if _, err := os.Lstat(symlinkPath); err != nil {
		return LinkMissing
	}

	if _, err := os.Stat(symlinkPath); err != nil {
		return LinkBroken
	}

	return LinkValid
}

// ValidateReport summarizes validate's findings.
type ValidateReport struct {
	Broken   []string
	Missing  []string
	Repaired []string
	Residual []string
	Diff     string
}

// Validate cross-references the config against the filesystem,
// recreating missing/broken symlinks from their stored paths when fix
// is set, and returns a report of what was found and repaired.
func (s *Store) Validate(fix bool) (ValidateReport, error) {
	before, err := os.ReadFile(s.configPath())
	if err != nil {
		before = nil
	}

	var report ValidateReport

	for _, r := range s.allResources() {
		switch s.linkStatus(r) {
		case LinkBroken:
			report.Broken = append(report.Broken, r.Name)
		case LinkMissing:
			report.Missing = append(report.Missing, r.Name)
		case LinkValid:
			continue
		}

		if !fix {
			continue
		}

		if err := s.repairLink(r); err != nil {
			report.Residual = append(report.Residual, fmt.Sprintf("%s: %v", r.Name, err))
			continue
		}

		report.Repaired = append(report.Repaired, r.Name)
	}

	if fix && len(report.Repaired) > 0 {
		after, readErr := os.ReadFile(s.configPath())
		if readErr == nil && before != nil {
			report.Diff = renderConfigDiff(string(before), string(after))
		}
	}

	return report, nil
}

func (s *Store) repairLink(r model.Resource) error {
	resolved, err := resolvePath(r.Path)
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(resolved); statErr != nil {
		return fmt.Errorf("stored target %s no longer exists", resolved)
	}

	symlinkPath := filepath.Join(s.reposDir(), r.Name)

	os.Remove(symlinkPath)

	return os.Symlink(resolved, symlinkPath)
}

// UpgradeReport summarizes upgrade's findings.
type UpgradeReport struct {
	Adopted  []string
	Migrated bool
}

// Upgrade adopts orphaned repos/<name> symlinks not present in the
// config (when force is set), bootstraps a missing config, and
// migrates a legacy project-root config into .air/.
func (s *Store) Upgrade(force bool) (UpgradeReport, error) {
	var report UpgradeReport

	if err := migrateLegacyConfig(s.Root); err != nil {
		return report, err
	}

	if _, err := os.Stat(s.configPath()); errors.Is(err, os.ErrNotExist) {
		bootstrapped, initErr := Init(s.Root, filepath.Base(s.Root), model.ModeReview)
		if initErr != nil {
			return report, initErr
		}

		*s = *bootstrapped
		report.Migrated = true
	}

	entries, err := os.ReadDir(s.reposDir())
	if err != nil {
		return report, nil //nolint:nilerr // no repos/ dir yet is not an upgrade failure.
	}

	for _, entry := range entries {
		if s.findResource(entry.Name()) != nil {
			continue
		}

		if !force {
			continue
		}

		if err := s.adoptOrphan(entry.Name()); err == nil {
			report.Adopted = append(report.Adopted, entry.Name())
		}
	}

	if len(report.Adopted) > 0 {
		if err := s.save(); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (s *Store) adoptOrphan(name string) error {
	symlinkPath := filepath.Join(s.reposDir(), name)

	target, err := filepath.EvalSymlinks(symlinkPath)
	if err != nil {
		return err
	}

	resource := model.Resource{
		Name:          name,
		Path:          storePath(target),
		Relationship:  model.RelationshipReviewOnly,
		Type:          model.ResourceLibrary,
		Outputs:       []string{},
		Contributions: []model.Contribution{},
		LinkedAt:      time.Now().UTC(),
	}

	if result, classifyErr := classify.Classify(target); classifyErr == nil {
		resource.Type = result.Type
		resource.TechnologyStack = result.TechnologyStack
	}

	s.appendResource(resource)

	return nil
}

func (s *Store) allResources() []model.Resource {
	all := make([]model.Resource, 0, len(s.Config.Resources.Review)+len(s.Config.Resources.Develop))
	all = append(all, s.Config.Resources.Review...)
	all = append(all, s.Config.Resources.Develop...)

	return all
}

func (s *Store) findResource(name string) *model.Resource {
	for i := range s.Config.Resources.Review {
		if s.Config.Resources.Review[i].Name == name {
			return &s.Config.Resources.Review[i]
		}
	}

	for i := range s.Config.Resources.Develop {
		if s.Config.Resources.Develop[i].Name == name {
			return &s.Config.Resources.Develop[i]
		}
	}

	return nil
}

func (s *Store) appendResource(r model.Resource) {
	if r.Relationship == model.RelationshipContributor {
		s.Config.Resources.Develop = append(s.Config.Resources.Develop, r)
		return
	}

	s.Config.Resources.Review = append(s.Config.Resources.Review, r)
}

func (s *Store) removeResource(name string) {
	s.Config.Resources.Review = removeByName(s.Config.Resources.Review, name)
	s.Config.Resources.Develop = removeByName(s.Config.Resources.Develop, name)
}

func removeByName(resources []model.Resource, name string) []model.Resource {
	filtered := make([]model.Resource, 0, len(resources))

	for _, r := range resources {
		if r.Name != name {
			filtered = append(filtered, r)
		}
	}

	return filtered
}
