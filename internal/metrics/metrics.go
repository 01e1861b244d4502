package metrics

import "time"

type AgendaMetrics interface {
	TaskWritten(op string)
	SlotConflict(op string)
	EventForwarded()
	EventForwardFailed()
	DashboardServed(period string, d time.Duration)
}

// Nop discards everything. Used by the CLI and in tests.
type Nop struct{}

func (Nop) TaskWritten(string)                    {}
func (Nop) SlotConflict(string)                   {}
func (Nop) EventForwarded()                       {}
func (Nop) EventForwardFailed()                   {}
func (Nop) DashboardServed(string, time.Duration) {}
