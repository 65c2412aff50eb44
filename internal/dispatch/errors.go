package dispatch

import "fmt"

// PersistenceError reports found images that could not be written after retrying.
type PersistenceError struct {
	Unpersisted int
	Batches     int
	Cause       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %d images in %d batches: %v", e.Unpersisted, e.Batches, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}
