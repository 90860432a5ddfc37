package session

import "time"

// EngineOption configures a new Engine, following chromedp's
// BrowserOption/ContextOption functional-options pattern (SPEC_FULL §2.4).
type EngineOption func(*Engine)

// WithLogf sets the sink for informational messages.
func WithLogf(f func(string, ...interface{})) EngineOption {
	return func(e *Engine) { e.logf = f }
}

// WithErrorf sets the sink for non-fatal error messages (e.g. self-healed
// protocol anomalies, dropped undecodable events).
func WithErrorf(f func(string, ...interface{})) EngineOption {
	return func(e *Engine) { e.errf = f }
}

// WithInterval overrides the default 1-second Interval tick driving
// per-tab deferred task queues.
func WithInterval(d time.Duration) EngineOption {
	return func(e *Engine) { e.interval = d }
}
