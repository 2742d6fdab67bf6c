package outbox

import "time"

type Option func(*UseCase)

// Retention is how long processed and failed events are kept.
func Retention(d time.Duration) Option {
	return func(uc *UseCase) {
		if d > 0 {
			uc.retention = d
		}
	}
}

// StaleAfter is how long an event may stay claimed, and a record pending,
// before ReclaimStale steps in.
func StaleAfter(d time.Duration) Option {
	return func(uc *UseCase) {
		if d > 0 {
			uc.staleAfter = d
		}
	}
}

func ReclaimLimit(limit int) Option {
	return func(uc *UseCase) {
		if limit > 0 {
			uc.reclaimLimit = limit
		}
	}
}

// Clock replaces time.Now in tests.
func Clock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}
