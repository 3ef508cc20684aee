package analyze

import "runtime"

// NewDefaultRegistry returns a Factory with the five built-in analyzers
// registered: security, performance, quality, architecture, and
// code-structure, in that priority order.
func NewDefaultRegistry() *Factory {
	factory := NewFactory(runtime.NumCPU())

	factory.Register(SecurityAnalyzer{})
	factory.Register(PerformanceAnalyzer{})
	factory.Register(QualityAnalyzer{})
	factory.Register(ArchitectureAnalyzer{})
	factory.Register(CodeStructureAnalyzer{})

	return factory
}
