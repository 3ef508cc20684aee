package worker

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/LiveData-Inc/air-toolkit/internal/analyze"
	"github.com/LiveData-Inc/air-toolkit/internal/cache"
	"github.com/LiveData-Inc/air-toolkit/internal/model"
)

// RunChild reads one Request from r, runs it against factory, and
// writes one Response to w. It never returns a Go error for an
// analyzer failure — that is reported as Response.Status=="error" — only
// for a malformed request or a write failure, both of which indicate
// the parent process itself is misbehaving.
func RunChild(r io.Reader, w io.Writer, factory *analyze.Factory) error {
	var req Request

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	var c *cache.Cache
	if req.CacheDir != "" {
		c = cache.New(req.CacheDir, req.SoftwareVersion)
	}

	start := time.Now()
	result := factory.Run(req.AnalyzerName, req.RepoPath, req.IncludeExternal, c)
	duration := time.Since(start).Milliseconds()

	resp := Response{
		Status:     "ok",
		Result:     result,
		DurationMS: duration,
	}

	if result.Metadata.Error {
		resp.Status = "error"
		resp.Error = result.Metadata.ErrorMessage
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// timeoutResult builds the AnalyzerResult a Pool reports when a unit's
// subprocess is killed for exceeding its deadline.
func timeoutResult(analyzerName string, timeout time.Duration) model.AnalyzerResult {
	return model.AnalyzerResult{
		AnalyzerName: analyzerName,
		Findings:     []model.Finding{},
		Summary:      map[string]int{},
		Metadata: model.ResultMetadata{
			Error:        true,
			ErrorMessage: fmt.Sprintf("timeout after %s", timeout),
		},
	}
}
