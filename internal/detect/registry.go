package detect

// NewDefaultRegistry returns a Registry seeded with every built-in
// detector, in the fixed order manifests are preferred over import
// scans: package managers tend to be more precise about what a repo
// actually depends on than a textual import scan.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()

	registry.Register(PyProjectDetector{})
	registry.Register(RequirementsDetector{})
	registry.Register(PackageJSONDetector{})
	registry.Register(GoModDetector{})
	registry.Register(PythonImportDetector{})
	registry.Register(JSImportDetector{})
	registry.Register(GoImportDetector{})
	registry.Register(APIDetector{})

	return registry
}

// ProducedPackageName returns the package/module name a repo's own
// manifest declares it produces, trying each ecosystem's manifest in
// turn. Used by the dependency graph to identify which repo satisfies
// which other repo's dependency.
func ProducedPackageName(repoPath string) (string, bool) {
	if name, ok := producedPackageNameGo(repoPath); ok {
		return name, true
	}

	if name, ok := producedPackageNameNode(repoPath); ok {
		return name, true
	}

	if name, ok := producedPackageNamePython(repoPath); ok {
		return name, true
	}

	return "", false
}
