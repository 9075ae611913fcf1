// Package progress provides reusable progress-reporting helpers. Progress is
// only ever emitted from the coordinating goroutine between dispatch rounds,
// never from inside workers.
package progress

// Callback receives workflow stage progress updates.
type Callback func(stage string, processed, total int)

// Emit calls cb with a stage label and clamped processed/total values.
// It is a no-op when cb is nil or total is non-positive.
func Emit(cb Callback, stage string, processed, total int) {
	if cb == nil || total <= 0 {
		return
	}

	if processed < 0 {
		processed = 0
	}
	if processed > total {
		processed = total
	}

	cb(stage, processed, total)
}
