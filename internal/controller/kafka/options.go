package kafka

import "time"

type Option func(*KafkaController)

// MaxAttempts bounds how many times one message is enriched before it is
// committed and left to the outbox reclaim sweep.
func MaxAttempts(n int) Option {
	return func(c *KafkaController) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// RetryBackoff is the first pause between attempts. It doubles up to 30s.
func RetryBackoff(d time.Duration) Option {
	return func(c *KafkaController) {
		if d > 0 {
			c.retryBackoff = d
		}
	}
}
