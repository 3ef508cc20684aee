package detect

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/LiveData-Inc/air-toolkit/internal/model"

	"github.com/LiveData-Inc/air-toolkit/internal/pathfilter"
)

// walkSource enumerates first-party files under repoPath with the given
// extensions, applying the Path Filter (pathfilter.ShouldExclude) per
// spec §4.B ("must never mutate the repo" and, by the same rule that
// binds analyzers, must route file iteration through component A).
func walkSource(repoPath string, extensions map[string]struct{}, perFile func(absPath, relPath string) error) error {
	return filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // best-effort scan; unreadable entries are skipped, not fatal.
		}

		relPath, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			return nil //nolint:nilerr // unreachable for well-formed repoPath/path pairs.
		}

		if info.IsDir() {
			if pathfilter.ShouldExclude(relPath, false) {
				return filepath.SkipDir
			}

			return nil
		}

		if pathfilter.ShouldExclude(relPath, false) {
			return nil
		}

		if _, ok := extensions[filepath.Ext(path)]; !ok {
			return nil
		}

		return perFile(path, relPath)
	})
}

// PythonImportDetector scans .py files for top-level "import x" /
// "from x import y" statements, excluding relative imports.
type PythonImportDetector struct{}

// Name implements Detector.
func (PythonImportDetector) Name() string { return "python-imports" }

// DependencyType implements Detector.
func (PythonImportDetector) DependencyType() model.DependencyType { return model.DependencyImport }

// CanDetect implements Detector.
func (PythonImportDetector) CanDetect(repoPath string) bool {
	return hasExtension(repoPath, ".py")
}

var (
	pyImportPattern     = regexp.MustCompile(`^\s*import\s+([A-Za-z_][\w.]*)`)
	pyFromImportPattern = regexp.MustCompile(`^\s*from\s+([A-Za-z_][\w.]*)\s+import`)
)

// Detect implements Detector.
func (PythonImportDetector) Detect(repoPath string) (model.DependencyResult, error) {
	var names []string

	walkErr := walkSource(repoPath, extSet(".py"), func(absPath, _ string) error {
		fileNames, err := scanLines(absPath, func(line string) string {
			if match := pyImportPattern.FindStringSubmatch(line); match != nil {
				return topLevel(match[1], ".")
			}

			if match := pyFromImportPattern.FindStringSubmatch(line); match != nil {
				return topLevel(match[1], ".")
			}

			return ""
		})
		if err != nil {
			return err
		}

		names = append(names, fileNames...)

		return nil
	})
	if walkErr != nil {
		return model.DependencyResult{}, fmt.Errorf("python import detect: %w", walkErr)
	}

	return model.DependencyResult{
		DependencyType: model.DependencyImport,
		Dependencies:   normalizeNames(names),
		SourceFile:     "*.py",
	}, nil
}

// JSImportDetector scans .js/.ts files for ES module and CommonJS
// imports, excluding relative ("./", "../") specifiers.
type JSImportDetector struct{}

// Name implements Detector.
func (JSImportDetector) Name() string { return "js-imports" }

// DependencyType implements Detector.
func (JSImportDetector) DependencyType() model.DependencyType { return model.DependencyImport }

// CanDetect implements Detector.
func (JSImportDetector) CanDetect(repoPath string) bool {
	return hasExtension(repoPath, ".js") || hasExtension(repoPath, ".ts")
}

var (
	jsImportFromPattern = regexp.MustCompile(`import\s+(?:[\w*{}\s,]+\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequirePattern    = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
)

// Detect implements Detector.
func (JSImportDetector) Detect(repoPath string) (model.DependencyResult, error) {
	var names []string

	walkErr := walkSource(repoPath, extSet(".js", ".ts", ".jsx", ".tsx"), func(absPath, _ string) error {
		fileNames, err := scanLines(absPath, func(line string) string {
			if match := jsImportFromPattern.FindStringSubmatch(line); match != nil {
				return jsPackageRoot(match[1])
			}

			if match := jsRequirePattern.FindStringSubmatch(line); match != nil {
				return jsPackageRoot(match[1])
			}

			return ""
		})
		if err != nil {
			return err
		}

		names = append(names, fileNames...)

		return nil
	})
	if walkErr != nil {
		return model.DependencyResult{}, fmt.Errorf("js import detect: %w", walkErr)
	}

	return model.DependencyResult{
		DependencyType: model.DependencyImport,
		Dependencies:   normalizeNames(names),
		SourceFile:     "*.js,*.ts",
	}, nil
}

// jsPackageRoot returns the empty string for relative specifiers, else
// the package root ("@scope/name" or "name") of a module specifier.
func jsPackageRoot(specifier string) string {
	if strings.HasPrefix(specifier, ".") {
		return ""
	}

	parts := strings.Split(specifier, "/")

	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}

	return parts[0]
}

// GoImportDetector scans .go files for import paths, excluding local
// module-relative imports (best-effort: anything that is not a
// recognizable external host path).
type GoImportDetector struct{}

// Name implements Detector.
func (GoImportDetector) Name() string { return "go-imports" }

// DependencyType implements Detector.
func (GoImportDetector) DependencyType() model.DependencyType { return model.DependencyImport }

// CanDetect implements Detector.
func (GoImportDetector) CanDetect(repoPath string) bool {
	return hasExtension(repoPath, ".go")
}

var goImportLinePattern = regexp.MustCompile(`^\s*(?:\w+\s+)?"([^"]+)"\s*$`)

// Detect implements Detector.
func (GoImportDetector) Detect(repoPath string) (model.DependencyResult, error) {
	modulePath, _, _ := parseGoMod(repoPath)

	var names []string

	walkErr := walkSource(repoPath, extSet(".go"), func(absPath, _ string) error {
		inBlock := false

		fileNames, err := scanLines(absPath, func(line string) string {
			trimmed := strings.TrimSpace(line)

			switch {
			case strings.HasPrefix(trimmed, "import ("):
				inBlock = true

				return ""
			case inBlock && trimmed == ")":
				inBlock = false

				return ""
			case inBlock:
				if match := goImportLinePattern.FindStringSubmatch(trimmed); match != nil {
					return goExternalRoot(match[1], modulePath)
				}

				return ""
			case strings.HasPrefix(trimmed, `import "`):
				path := strings.TrimPrefix(trimmed, "import ")
				path = strings.Trim(path, `"`)

				return goExternalRoot(path, modulePath)
			default:
				return ""
			}
		})
		if err != nil {
			return err
		}

		names = append(names, fileNames...)

		return nil
	})
	if walkErr != nil {
		return model.DependencyResult{}, fmt.Errorf("go import detect: %w", walkErr)
	}

	return model.DependencyResult{
		DependencyType: model.DependencyImport,
		Dependencies:   normalizeNames(names),
		SourceFile:     "*.go",
	}, nil
}

// goExternalRoot returns "" for standard-library or self-module
// imports, else the import path truncated to its first three path
// segments (the common module-root shape, e.g. "github.com/a/b").
func goExternalRoot(importPath, ownModulePath string) string {
	if !strings.Contains(importPath, ".") {
		return "" // standard library: no dot in the first segment's host.
	}

	if ownModulePath != "" && strings.HasPrefix(importPath, ownModulePath) {
		return ""
	}

	parts := strings.Split(importPath, "/")
	if len(parts) > 3 {
		parts = parts[:3]
	}

	return strings.Join(parts, "/")
}

// APIDetector is a registered stub reserved for HTTP-call-based
// dependency extraction; it always returns an empty result.
type APIDetector struct{}

// Name implements Detector.
func (APIDetector) Name() string { return "api-stub" }

// DependencyType implements Detector.
func (APIDetector) DependencyType() model.DependencyType { return model.DependencyAPI }

// CanDetect implements Detector.
func (APIDetector) CanDetect(string) bool { return true }

// Detect implements Detector.
func (APIDetector) Detect(string) (model.DependencyResult, error) {
	return model.DependencyResult{
		DependencyType: model.DependencyAPI,
		Dependencies:   []string{},
		SourceFile:     "",
	}, nil
}

func topLevel(dotted, sep string) string {
	head, _, _ := strings.Cut(dotted, sep)

	return head
}

func extSet(exts ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[ext] = struct{}{}
	}

	return set
}

func hasExtension(repoPath, ext string) bool {
	found := false

	_ = walkSource(repoPath, extSet(ext), func(string, string) error {
		found = true

		return filepath.SkipAll
	})

	return found
}

func scanLines(path string, extract func(line string) string) ([]string, error) {
	file, openErr := os.Open(path) //nolint:gosec // repoPath is operator-supplied.
	if openErr != nil {
		return nil, fmt.Errorf("scan %s: %w", path, openErr)
	}
	defer file.Close()

	var names []string

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if name := extract(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return nil, fmt.Errorf("scan %s: %w", path, scanErr)
	}

	return names, nil
}
