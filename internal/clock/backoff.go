package clock

import "time"

// Backoff yields capped exponentially growing delays for retrying the same unit of work.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	attempt int
}

// Next returns the delay for the upcoming retry and advances the attempt counter.
func (b *Backoff) Next() time.Duration {
	d := b.Initial
	for i := 0; i < b.attempt && (b.Max == 0 || d < b.Max); i++ {
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	b.attempt++
	return d
}

// Reset restarts the sequence after a success.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempts returns how many delays were handed out since the last reset.
func (b *Backoff) Attempts() int {
	return b.attempt
}
