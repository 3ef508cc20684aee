package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
	"github.com/LiveData-Inc/air-toolkit/internal/observability"
)

// ChildSubcommand is the hidden cobra subcommand the air binary
// re-execs itself with to behave as a worker child, used when no
// standalone air-worker binary is configured.
const ChildSubcommand = "__air_worker_exec"

// defaultUnitTimeout bounds how long a single unit may run before the
// Pool cancels its subprocess and reports a timeout.
const defaultUnitTimeout = 5 * time.Minute

// terminationGracePeriod is how long a cancelled child gets to exit
// after SIGINT before the Pool escalates to SIGKILL.
const terminationGracePeriod = 3 * time.Second

// Pool runs Units across a bounded number of concurrent child worker
// subprocesses, one subprocess per unit, each speaking the JSON
// request/response protocol on stdin/stdout.
type Pool struct {
	// Workers bounds concurrent subprocesses. <= 0 means
	// runtime.NumCPU().
	Workers int

	// UnitTimeout bounds a single unit's wall-clock time. <= 0 means
	// defaultUnitTimeout.
	UnitTimeout time.Duration

	// BinaryPath is the air-worker executable to invoke. Empty means
	// resolve via ResolveBinaryPath at Run time.
	BinaryPath string

	// Progress, if non-nil, is invoked as each unit starts, completes,
	// or fails. Calls are serialized (never concurrent with each
	// other) even though units run on separate goroutines, so the
	// callback can treat itself as single-threaded.
	Progress func(ProgressEvent)

	// Metrics, if set, records each unit's outcome and subprocess
	// duration. Nil is a valid zero value.
	Metrics *observability.WorkerMetrics

	progressMu sync.Mutex
}

// ResolveBinaryPath finds the air-worker executable: an explicit path,
// then "air-worker" on $PATH, then self-re-exec via os.Args[0] with the
// hidden child subcommand appended.
func ResolveBinaryPath(explicit string) (path string, args []string, err error) {
	if explicit != "" {
		return explicit, nil, nil
	}

	if found, lookErr := exec.LookPath("air-worker"); lookErr == nil {
		return found, nil, nil
	}

	self, err := os.Executable()
	if err != nil {
		return "", nil, fmt.Errorf("%w: resolve self-exec path: %w", airerr.ErrWorker, err)
	}

	return self, []string{ChildSubcommand}, nil
}

// Clone returns a Pool with the same configuration but a fresh,
// unlocked progress mutex, safe for callers that need to attach a
// call-specific Progress callback without mutating the shared Pool or
// copying its mutex.
func (p *Pool) Clone() *Pool {
	return &Pool{
		Workers:     p.Workers,
		UnitTimeout: p.UnitTimeout,
		BinaryPath:  p.BinaryPath,
		Progress:    p.Progress,
		Metrics:     p.Metrics,
	}
}

// Run dispatches every unit to a child worker, at most Workers
// concurrently, and returns one UnitResult per unit in the order
// units was given. A context cancellation stops submitting new units;
// already-running subprocesses are killed and units not yet started
// are reported with ctx.Err().
func (p *Pool) Run(ctx context.Context, units []Unit) []UnitResult {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	binaryPath, prefixArgs, resolveErr := ResolveBinaryPath(p.BinaryPath)

	results := make([]UnitResult, len(units))

	if resolveErr != nil {
		for i, u := range units {
			results[i] = UnitResult{UnitID: u.ID, Err: resolveErr}
			p.report(u.ID, UnitFailed)
		}

		return results
	}

	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup

	for i, unit := range units {
		if ctx.Err() != nil {
			results[i] = UnitResult{UnitID: unit.ID, Err: ctx.Err()}
			p.report(unit.ID, UnitFailed)

			continue
		}

		wg.Add(1)

		go func(i int, u Unit) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = UnitResult{UnitID: u.ID, Err: ctx.Err()}
				p.report(u.ID, UnitFailed)

				return
			}

			results[i] = p.runOne(ctx, binaryPath, prefixArgs, u)
		}(i, unit)
	}

	wg.Wait()

	return results
}

func (p *Pool) runOne(ctx context.Context, binaryPath string, prefixArgs []string, unit Unit) UnitResult {
	p.report(unit.ID, UnitStarted)

	stopInFlight := p.Metrics.TrackInFlight(ctx, unit.Request.AnalyzerName)
	defer stopInFlight()

	start := time.Now()

	timeout := p.UnitTimeout
	if timeout <= 0 {
		timeout = defaultUnitTimeout
	}

	unitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqBody, err := json.Marshal(unit.Request)
	if err != nil {
		p.report(unit.ID, UnitFailed)
		p.Metrics.RecordUnit(ctx, unit.Request.AnalyzerName, observability.OutcomeFailed, time.Since(start))

		return UnitResult{UnitID: unit.ID, Err: fmt.Errorf("%w: encode request: %w", airerr.ErrWorker, err)}
	}

	cmd := exec.CommandContext(unitCtx, binaryPath, prefixArgs...) //nolint:gosec // binaryPath is operator-configured or self.
	cmd.Stdin = bytes.NewReader(reqBody)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// On cancellation, ask the child to exit before killing it outright.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = terminationGracePeriod

	runErr := cmd.Run()

	if errors.Is(unitCtx.Err(), context.DeadlineExceeded) {
		p.report(unit.ID, UnitFailed)
		p.Metrics.RecordUnit(ctx, unit.Request.AnalyzerName, observability.OutcomeTimeout, time.Since(start))

		return UnitResult{
			UnitID: unit.ID,
			Result: timeoutResult(unit.Request.AnalyzerName, timeout),
			Err:    fmt.Errorf("%w: unit %s exceeded %s", airerr.ErrTimeout, unit.ID, timeout),
		}
	}

	if runErr != nil {
		p.report(unit.ID, UnitFailed)
		p.Metrics.RecordUnit(ctx, unit.Request.AnalyzerName, observability.OutcomeFailed, time.Since(start))

		return UnitResult{
			UnitID: unit.ID,
			Err:    fmt.Errorf("%w: %s: %w (stderr: %s)", airerr.ErrWorker, unit.ID, runErr, stderr.String()),
		}
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		p.report(unit.ID, UnitFailed)
		p.Metrics.RecordUnit(ctx, unit.Request.AnalyzerName, observability.OutcomeFailed, time.Since(start))

		return UnitResult{
			UnitID: unit.ID,
			Err:    fmt.Errorf("%w: decode response for %s: %w", airerr.ErrWorker, unit.ID, err),
		}
	}

	if resp.Status != "ok" {
		p.report(unit.ID, UnitFailed)
		p.Metrics.RecordUnit(ctx, unit.Request.AnalyzerName, observability.OutcomeFailed, time.Since(start))

		return UnitResult{
			UnitID:     unit.ID,
			Result:     resp.Result,
			DurationMS: resp.DurationMS,
			Err:        fmt.Errorf("%w: %s: %s", airerr.ErrWorker, unit.ID, resp.Error),
		}
	}

	p.report(unit.ID, UnitCompleted)
	p.Metrics.RecordUnit(ctx, unit.Request.AnalyzerName, observability.OutcomeOK, time.Since(start))

	return UnitResult{UnitID: unit.ID, Result: resp.Result, DurationMS: resp.DurationMS}
}

func (p *Pool) report(unitID string, state UnitState) {
	if p.Progress == nil {
		return
	}

	p.progressMu.Lock()
	defer p.progressMu.Unlock()

	p.Progress(ProgressEvent{UnitID: unitID, State: state})
}
