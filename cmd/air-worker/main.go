// Command air-worker is the out-of-process child spawned by the air
// Worker Pool: it reads one JSON Request from stdin, runs the named
// analyzer, and writes one JSON Response to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/LiveData-Inc/air-toolkit/internal/analyze"
	"github.com/LiveData-Inc/air-toolkit/internal/worker"
)

func main() {
	factory := analyze.NewDefaultRegistry()

	if err := worker.RunChild(os.Stdin, os.Stdout, factory); err != nil {
		fmt.Fprintf(os.Stderr, "air-worker: %v\n", err)
		os.Exit(1)
	}
}
