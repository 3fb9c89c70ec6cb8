// Package alert delivers out-of-band notifications raised by the monitor.
// Delivery is best-effort by contract: Send never panics and never returns
// an error, only whether the message went out. Missing transport credentials
// disable alerting; they are a configuration gap, not a crash condition.
package alert

// Alerter attempts to deliver one message.
type Alerter interface {
	Send(subject, body string) bool
}

// NoOp discards every alert and reports success. Used for dry runs and
// tests.
type NoOp struct{}

// Send discards the message.
func (NoOp) Send(_, _ string) bool { return true }
