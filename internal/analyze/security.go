package analyze

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/LiveData-Inc/air-toolkit/internal/cache"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/pathfilter"
)

// securityPattern is one of the fourteen required pattern families: a
// regex-or-AST-check (here, a compiled regex applied per line) mapped
// to a Finding template and severity.
type securityPattern struct {
	family      string
	severity    model.Severity
	title       string
	description string
	suggestion  string
	pattern     *regexp.Regexp
}

// securityPatterns implements twelve of the fourteen families as
// single-line regex checks; the remaining two (missing security
// headers, CSRF missing on POST endpoints) need whole-file context and
// are handled by fileLevelSecurityChecks instead.
var securityPatterns = []securityPattern{
	{
		family:      "hardcoded-secret",
		severity:    model.SeverityCritical,
		title:       "Hardcoded secret",
		description: "A string matching a known credential shape (API key, AWS access key, bearer token, or SSH private key header) appears in source.",
		suggestion:  "Move the value to an environment variable or secret store.",
		pattern:     regexp.MustCompile(`AKIA[0-9A-Z]{16}|(?i)(api[_-]?key|secret|token)\s*[:=]\s*['"][A-Za-z0-9_\-]{16,}['"]|Bearer\s+[A-Za-z0-9\-_.]{20,}|-----BEGIN (RSA |EC |OPENSSH |DSA )?PRIVATE KEY-----`),
	},
	{
		family:      "weak-crypto",
		severity:    model.SeverityHigh,
		title:       "Weak cryptographic primitive",
		description: "MD5, SHA1, DES, and RC4 are not safe for integrity or confidentiality guarantees.",
		suggestion:  "Use SHA-256 or better for hashing, AES-GCM for symmetric encryption.",
		pattern:     regexp.MustCompile(`(?i)\b(md5|sha1|crypto/des|crypto/rc4|DES\.new|RC4\.new)\s*[(.]`),
	},
	{
		family:      "sql-injection",
		severity:    model.SeverityHigh,
		title:       "Possible SQL injection",
		description: "A query-execution call is built from concatenated or interpolated strings rather than bound parameters.",
		suggestion:  "Use parameterized queries or an ORM's bound-parameter API.",
		pattern:     regexp.MustCompile(`(?i)\.(execute|query)\(\s*(f["']|["'][^"']*["']\s*\+|["'][^"']*%s[^"']*["']\s*%)`),
	},
	{
		family:      "insecure-deserialization",
		severity:    model.SeverityHigh,
		title:       "Insecure deserialization",
		description: "pickle.loads and yaml.load (without a safe loader) can execute arbitrary code from untrusted input.",
		suggestion:  "Use yaml.safe_load, or avoid deserializing untrusted pickle data.",
		pattern:     regexp.MustCompile(`pickle\.loads?\(|yaml\.load\((?!.*Loader\s*=\s*yaml\.SafeLoader)`),
	},
	{
		family:      "shell-injection",
		severity:    model.SeverityHigh,
		title:       "Shell-injection risk",
		description: "os.system or a subprocess call with shell=True passes a string to the shell, which is unsafe with untrusted input.",
		suggestion:  "Pass argument lists and avoid shell=True, or sanitize strictly.",
		pattern:     regexp.MustCompile(`os\.system\(|subprocess\.\w+\([^)]*shell\s*=\s*True`),
	},
	{
		family:      "eval-exec",
		severity:    model.SeverityHigh,
		title:       "Use of eval/exec",
		description: "eval/exec on dynamic input can execute arbitrary code.",
		suggestion:  "Replace with an explicit parser or a restricted lookup table.",
		pattern:     regexp.MustCompile(`\b(eval|exec)\s*\(`),
	},
	{
		family:      "debug-mode",
		severity:    model.SeverityMedium,
		title:       "Debug mode enabled",
		description: "Debug mode left enabled in config can leak stack traces and internals to end users.",
		suggestion:  "Disable debug mode outside local development.",
		pattern:     regexp.MustCompile(`(?i)\bDEBUG\s*=\s*True\b|debug\s*:\s*true`),
	},
	{
		family:      "path-traversal",
		severity:    model.SeverityHigh,
		title:       "Path traversal risk",
		description: "A filesystem path is joined directly from request/user input without sanitization.",
		suggestion:  "Validate and normalize the path, rejecting any that escape the intended root.",
		pattern:     regexp.MustCompile(`os\.path\.join\([^)]*request\.|filepath\.Join\([^)]*r\.URL`),
	},
	{
		family:      "command-injection",
		severity:    model.SeverityHigh,
		title:       "Command injection risk",
		description: "A command is built from concatenated strings before being executed.",
		suggestion:  "Use an argument list instead of a shell-interpreted command string.",
		pattern:     regexp.MustCompile(`exec\.Command\([^)]*\+|subprocess\.\w+\(\s*["'][^"']*["']\s*\+`),
	},
	{
		family:      "xxe",
		severity:    model.SeverityHigh,
		title:       "XML external entity (XXE) risk",
		description: "An XML parser is configured to resolve external entities.",
		suggestion:  "Disable external entity resolution (e.g. resolve_entities=False).",
		pattern:     regexp.MustCompile(`resolve_entities\s*=\s*True|setFeature\(\s*["']http://apache\.org/xml/features/disallow-doctype-decl["']\s*,\s*false\s*\)`),
	},
	{
		family:      "ldap-injection",
		severity:    model.SeverityMedium,
		title:       "LDAP injection risk",
		description: "An LDAP search filter is built from concatenated or interpolated user input.",
		suggestion:  "Escape filter metacharacters or use a parameterized filter builder.",
		pattern:     regexp.MustCompile(`ldap\.search\([^)]*\+|\.search_s\([^)]*%`),
	},
	{
		family:      "redos-weak-random",
		severity:    model.SeverityMedium,
		title:       "ReDoS-prone regex or weak randomness",
		description: "A nested-quantifier regex is vulnerable to catastrophic backtracking, or a non-cryptographic RNG is used where one is expected to be unguessable.",
		suggestion:  "Bound repetition explicitly, or switch to crypto/rand / secrets for security-sensitive randomness.",
		pattern:     regexp.MustCompile(`\([^()]*[+*]\)[+*]|Math\.random\(\)|(?i)\brandom\.random\(\)`),
	},
}

// securityTextExtensions limits the scan to text source, so binary
// assets and vendored lockfiles are not scanned line-by-line.
var securityTextExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".jsx": {}, ".tsx": {},
	".go": {}, ".rb": {}, ".java": {}, ".php": {}, ".yml": {}, ".yaml": {},
	".json": {}, ".env": {}, ".cfg": {}, ".ini": {}, ".conf": {},
}

// SecurityAnalyzer scans first-party text files for the fourteen
// required insecure-pattern families.
type SecurityAnalyzer struct{}

// Name implements Analyzer.
func (SecurityAnalyzer) Name() string { return "security" }

// Analyze implements Analyzer.
func (SecurityAnalyzer) Analyze(repoPath string, includeExternal bool, c *cache.Cache) (model.AnalyzerResult, error) {
	filter := pathfilter.NewFilter(repoPath)

	var findings []model.Finding

	walkErr := filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // best-effort scan.
		}

		relPath, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			return nil //nolint:nilerr // unreachable for well-formed repoPath/path pairs.
		}

		if info.IsDir() {
			if filter.ShouldExclude(relPath, includeExternal) {
				return filepath.SkipDir
			}

			return nil
		}

		if filter.ShouldExclude(relPath, includeExternal) {
			return nil
		}

		if _, ok := securityTextExtensions[filepath.Ext(path)]; !ok {
			return nil
		}

		fileBytes, readErr := os.ReadFile(path) //nolint:gosec // repoPath is operator-supplied.
		if readErr != nil {
			return nil //nolint:nilerr // unreadable file is skipped, not fatal.
		}

		fileFindings := cachedFileFindings(c, repoPath, "security", fileBytes, func() []model.Finding {
			var fresh []model.Finding

			fresh = append(fresh, scanFileForSecurityPatterns(fileBytes, relPath)...)
			fresh = append(fresh, fileLevelSecurityChecks(fileBytes, relPath)...)

			return fresh
		})

		findings = append(findings, fileFindings...)

		return nil
	})
	if walkErr != nil {
		return model.AnalyzerResult{}, fmt.Errorf("security analyze: %w", walkErr)
	}

	return model.AnalyzerResult{
		AnalyzerName: "security",
		Findings:     findings,
	}, nil
}

func scanFileForSecurityPatterns(fileBytes []byte, relPath string) []model.Finding {
	var findings []model.Finding

	scanner := bufio.NewScanner(bytes.NewReader(fileBytes))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		for _, p := range securityPatterns {
			if p.pattern.MatchString(line) {
				findings = append(findings, model.Finding{
					Category:    "security",
					Severity:    p.severity,
					Title:       p.title,
					Description: p.description,
					Suggestion:  p.suggestion,
					Location:    relPath,
					LineNumber:  lineNo,
					Metadata:    map[string]any{"family": p.family},
				})
			}
		}
	}

	return findings
}

// fileLevelSecurityChecks covers the two families that need whole-file
// context rather than a single matching line: missing security headers
// on a web-framework entry point, and a POST route with no CSRF
// protection visible anywhere in the same file.
func fileLevelSecurityChecks(fileBytes []byte, relPath string) []model.Finding {
	text := string(fileBytes)

	var findings []model.Finding

	if looksLikeWebEntryPoint(text) && !hasSecurityHeaders(text) {
		findings = append(findings, model.Finding{
			Category:    "security",
			Severity:    model.SeverityMedium,
			Title:       "Missing security headers",
			Description: "A web application entry point sets no common security headers (X-Frame-Options, X-Content-Type-Options, Content-Security-Policy).",
			Suggestion:  "Add a security-headers middleware.",
			Location:    relPath,
			Metadata:    map[string]any{"family": "missing-security-headers"},
		})
	}

	if hasPostRoute(text) && !strings.Contains(strings.ToLower(text), "csrf") {
		findings = append(findings, model.Finding{
			Category:    "security",
			Severity:    model.SeverityMedium,
			Title:       "CSRF protection missing on POST endpoint",
			Description: "A POST route is declared with no CSRF token check visible in the same file.",
			Suggestion:  "Apply CSRF middleware or validate a per-session token.",
			Location:    relPath,
			Metadata:    map[string]any{"family": "csrf-missing"},
		})
	}

	return findings
}

var (
	webEntryPointPattern = regexp.MustCompile(`Flask\(__name__\)|express\(\)|@SpringBootApplication|gin\.Default\(\)`)
	postRoutePattern     = regexp.MustCompile(`methods\s*=\s*\[[^]]*["']POST["']|app\.post\(|router\.POST\(|@PostMapping`)
	securityHeaderNames  = []string{"x-frame-options", "x-content-type-options", "content-security-policy"}
)

func looksLikeWebEntryPoint(text string) bool {
	return webEntryPointPattern.MatchString(text)
}

func hasPostRoute(text string) bool {
	return postRoutePattern.MatchString(text)
}

func hasSecurityHeaders(text string) bool {
	lower := strings.ToLower(text)
	for _, header := range securityHeaderNames {
		if strings.Contains(lower, header) {
			return true
		}
	}

	return false
}
