package guestinit

import "fmt"

// GuestAgentError wraps a failure inside the guest init agent.
type GuestAgentError struct {
	Op  string
	Err error
}

func (e *GuestAgentError) Error() string { return fmt.Sprintf("guestinit: %s: %v", e.Op, e.Err) }
func (e *GuestAgentError) Unwrap() error  { return e.Err }
