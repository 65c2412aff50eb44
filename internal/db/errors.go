package db

import "fmt"

// ConnectionError indicates the catalog store could not be reached.
type ConnectionError struct {
	Driver  string
	Message string
	Cause   error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s connection error: %s: %v", e.Driver, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s connection error: %s", e.Driver, e.Message)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}
