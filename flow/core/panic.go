package core

import "fmt"

// ErrPanic is a panic recovered from a stage, carried as an error. Stack
// is the panicking goroutine's stack as the recovering code chose to
// record it; it may be empty.
type ErrPanic struct {
	Value any
	Stack string
}

func (e ErrPanic) Error() string {
	if e.Stack != "" {
		return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e ErrPanic) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
