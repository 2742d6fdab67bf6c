package producer

import "time"

type Option func(*Producer)

func ConnAttempts(attempts int) Option {
	return func(p *Producer) {
		p.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.connTimeout = timeout
	}
}

func BatchTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.batchTimeout = timeout
	}
}

// AllowAutoTopicCreation lets the writer create missing topics, handy against
// a local single-broker setup.
func AllowAutoTopicCreation(allow bool) Option {
	return func(p *Producer) {
		p.autoCreate = allow
	}
}

func WriteTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.writeTimeout = timeout
	}
}

// MaxAttempts is how many times the writer retries a batch before
// WriteMessages fails.
func MaxAttempts(attempts int) Option {
	return func(p *Producer) {
		p.maxAttempts = attempts
	}
}
