package report

import "fmt"

// Status summarises the progress of the pipeline.
type Status int

const (
	StatusInitial Status = iota
	StatusLoading
	StatusReport
	StatusError
)

// Event drives the status machine.
type Event int

const (
	// Submitted fires when the Input Gate accepts an input.
	Submitted Event = iota
	// TerminalSuccess fires when the project slot receives a success.
	TerminalSuccess
	// TerminalFailure fires when the project slot receives a failure.
	TerminalFailure
)

func (s Status) String() string {
	switch s {
	case StatusInitial:
		return "initial"
	case StatusLoading:
		return "loading"
	case StatusReport:
		return "report"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status name, so it reads well in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for _, c := range []Status{StatusInitial, StatusLoading, StatusReport, StatusError} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Next returns the status after ev. Pairs without a transition leave the
// status unchanged.
func (s Status) Next(ev Event) Status {
	switch ev {
	case Submitted:
		return StatusLoading
	case TerminalSuccess:
		if s == StatusLoading {
			return StatusReport
		}
	case TerminalFailure:
		if s == StatusLoading {
			return StatusError
		}
	}
	return s
}
