// Package gitstatus answers two narrow questions about a repository's
// working tree: is it dirty, and what is its current HEAD commit.
// Both are needed to annotate analyzer results with freshness
// information the content-hash cache cannot express on its own.
package gitstatus

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// IsDirty reports whether repoPath's working tree has uncommitted
// changes: modified, staged, or untracked first-party files. A repo
// that is not a git repository at all is reported clean, not an
// error, since not every linked resource need be a git checkout.
func IsDirty(repoPath string) (bool, error) {
	repo, openErr := git2go.OpenRepository(repoPath)
	if openErr != nil {
		return false, nil //nolint:nilerr // non-git directories are treated as clean.
	}
	defer repo.Free()

	opts := &git2go.StatusOptions{
		Show:  git2go.StatusShowIndexAndWorkdir,
		Flags: git2go.StatusOptIncludeUntracked | git2go.StatusOptRecurseUntrackedDirs,
	}

	statusList, statusErr := repo.StatusList(opts)
	if statusErr != nil {
		return false, fmt.Errorf("gitstatus: list status for %s: %w", repoPath, statusErr)
	}
	defer statusList.Free()

	count, countErr := statusList.EntryCount()
	if countErr != nil {
		return false, fmt.Errorf("gitstatus: count entries for %s: %w", repoPath, countErr)
	}

	return count > 0, nil
}

// HeadShortHash returns the short (12-character) hex form of
// repoPath's HEAD commit, or "" if repoPath is not a git repository
// or has no commits yet.
func HeadShortHash(repoPath string) string {
	repo, openErr := git2go.OpenRepository(repoPath)
	if openErr != nil {
		return ""
	}
	defer repo.Free()

	head, headErr := repo.Head()
	if headErr != nil {
		return ""
	}
	defer head.Free()

	oid := head.Target()
	if oid == nil {
		return ""
	}

	full := oid.String()
	if len(full) > 12 {
		return full[:12]
	}

	return full
}
