package vm

// Status is the VM actor's lifecycle state (SPEC_FULL.md §3 lifecycle).
type Status string

const (
	StatusNew         Status = "New"
	StatusLaunching   Status = "Launching"
	StatusConnected   Status = "Connected"
	StatusRunning     Status = "Running"
	StatusShuttingDown Status = "ShuttingDown"
	StatusTerminated  Status = "Terminated"
)
