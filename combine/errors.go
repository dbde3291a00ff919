package combine

import "fmt"

// ValidationError marks a request-level problem: the job never starts and
// the HTTP layer reports it as a 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// AssemblyError marks a failure writing or merging the final output. Unlike
// per-file failures it aborts the job.
type AssemblyError struct {
	Stage string
	Err   error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }
