package analyze

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiveData-Inc/air-toolkit/internal/cache"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

type stubAnalyzer struct {
	name     string
	result   model.AnalyzerResult
	err      error
	panicMsg string
}

func (s stubAnalyzer) Name() string { return s.name }

func (s stubAnalyzer) Analyze(string, bool, *cache.Cache) (model.AnalyzerResult, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}

	return s.result, s.err
}

func TestFactoryRunUnregisteredName(t *testing.T) {
	f := NewFactory(1)

	result := f.Run("nope", "/tmp", false, nil)
	assert.True(t, result.Metadata.Error)
	assert.Empty(t, result.Findings)
}

func TestFactoryRunIsolatesError(t *testing.T) {
	f := NewFactory(1)
	f.Register(stubAnalyzer{name: "broken", err: errors.New("boom")})

	result := f.Run("broken", "/tmp", false, nil)
	require.True(t, result.Metadata.Error)
	assert.Contains(t, result.Metadata.ErrorMessage, "boom")
	assert.Empty(t, result.Findings)
}

func TestFactoryRunIsolatesPanic(t *testing.T) {
	f := NewFactory(1)
	f.Register(stubAnalyzer{name: "panicky", panicMsg: "exploded"})

	result := f.Run("panicky", "/tmp", false, nil)
	require.True(t, result.Metadata.Error)
	assert.Contains(t, result.Metadata.ErrorMessage, "exploded")
}

func TestFactoryRunSortsFindings(t *testing.T) {
	f := NewFactory(1)
	f.Register(stubAnalyzer{
		name: "ok",
		result: model.AnalyzerResult{
			AnalyzerName: "ok",
			Findings: []model.Finding{
				{Severity: model.SeverityLow, Location: "b.go", LineNumber: 1},
				{Severity: model.SeverityCritical, Location: "a.go", LineNumber: 5},
				{Severity: model.SeverityCritical, Location: "a.go", LineNumber: 1},
			},
		},
	})

	result := f.Run("ok", "/tmp", false, nil)
	require.Len(t, result.Findings, 3)
	assert.Equal(t, model.SeverityCritical, result.Findings[0].Severity)
	assert.Equal(t, 1, result.Findings[0].LineNumber)
	assert.Equal(t, model.SeverityCritical, result.Findings[1].Severity)
	assert.Equal(t, 5, result.Findings[1].LineNumber)
	assert.Equal(t, model.SeverityLow, result.Findings[2].Severity)
}

func TestFactoryRunAllSequentialAndParallel(t *testing.T) {
	for _, maxParallel := range []int{1, 4} {
		f := NewFactory(maxParallel)
		f.Register(stubAnalyzer{name: "a", result: model.AnalyzerResult{AnalyzerName: "a"}})
		f.Register(stubAnalyzer{name: "b", result: model.AnalyzerResult{AnalyzerName: "b"}})

		results := f.RunAll(context.Background(), "/tmp", false, nil, nil)
		require.Len(t, results, 2)
		assert.Contains(t, results, "a")
		assert.Contains(t, results, "b")
	}
}

func TestFactoryNamesAndHas(t *testing.T) {
	f := NewFactory(1)
	f.Register(stubAnalyzer{name: "a"})
	f.Register(stubAnalyzer{name: "b"})

	assert.Equal(t, []string{"a", "b"}, f.Names())
	assert.True(t, f.Has("a"))
	assert.False(t, f.Has("c"))
}
