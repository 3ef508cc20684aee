package workspace

import (
	"os"
	"path/filepath"
	"strings"
)

// gitReposPathEnv is the environment variable naming a root directory
// under which linked repos may live, per spec.md §4.I.
const gitReposPathEnv = "GIT_REPOS_PATH"

// storePath applies the GIT_REPOS_PATH storage rules to a raw,
// operator-supplied path, returning the form persisted in the config.
// It never touches the filesystem; resolvePath turns a stored value
// back into an absolute path at use time.
func storePath(input string) string {
	root, hasRoot := os.LookupEnv(gitReposPathEnv)

	switch {
	case strings.HasPrefix(input, "/"):
		return input
	case strings.HasPrefix(input, "~"):
		expanded := expandHome(input)

		if hasRoot {
			if rel, ok := relativeUnder(root, expanded); ok {
				return rel
			}
		}

		return expanded
	default:
		return input
	}
}

// resolvePath turns a stored config path into an absolute filesystem
// path, honoring GIT_REPOS_PATH for relative entries.
func resolvePath(stored string) (string, error) {
	if filepath.IsAbs(stored) {
		return stored, nil
	}

	if root, ok := os.LookupEnv(gitReposPathEnv); ok && root != "" {
		return filepath.Join(root, stored), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	return filepath.Join(cwd, stored), nil
}

func expandHome(input string) string {
	if input != "~" && !strings.HasPrefix(input, "~/") {
		return input
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return input
	}

	if input == "~" {
		return home
	}

	return filepath.Join(home, input[2:])
}

// relativeUnder reports whether target lies under root, returning the
// relative path if so.
func relativeUnder(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}

	return rel, true
}
