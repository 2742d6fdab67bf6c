package consumer

import "time"

type Option func(*Consumer)

func ConnAttempts(attempts int) Option {
	return func(c *Consumer) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *Consumer) {
		c.connTimeout = timeout
	}
}

// MaxWait bounds how long a fetch waits for new messages.
func MaxWait(wait time.Duration) Option {
	return func(c *Consumer) {
		c.maxWait = wait
	}
}

// StartOffset is used by a new consumer group: kafka.FirstOffset or kafka.LastOffset.
func StartOffset(offset int64) Option {
	return func(c *Consumer) {
		c.startOffset = offset
	}
}

// SessionTimeout is how long the group coordinator waits for a heartbeat
// before it hands this member's partitions to another consumer.
func SessionTimeout(timeout time.Duration) Option {
	return func(c *Consumer) {
		c.sessionTimeout = timeout
	}
}
