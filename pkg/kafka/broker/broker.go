// Package broker checks that a Kafka cluster is reachable before a reader or
// writer is handed out.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrNoBrokers = errors.New("no brokers configured")

// Ping asks each broker for cluster metadata until one answers.
func Ping(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return ErrNoBrokers
	}

	var errs []error
	for _, addr := range brokers {
		err := ping(ctx, addr)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func ping(ctx context.Context, addr string) error {
	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("broker %s - kafka.DialContext: %w", addr, err)
	}
	defer conn.Close()

	_, err = conn.Brokers()
	if err != nil {
		return fmt.Errorf("broker %s - conn.Brokers: %w", addr, err)
	}

	return nil
}

// WaitReady pings the cluster up to attempts times, sleeping interval between
// tries. onRetry, if set, sees every failure with the attempts still left.
func WaitReady(
	ctx context.Context,
	brokers []string,
	attempts int,
	interval time.Duration,
	onRetry func(left int, err error),
) error {
	var err error

	for left := max(attempts, 1); left > 0; left-- {
		err = Ping(ctx, brokers)
		if err == nil || errors.Is(err, ErrNoBrokers) {
			return err
		}

		if onRetry != nil {
			onRetry(left-1, err)
		}
		if left == 1 {
			break
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ctx.Err(), err)
		}
	}

	return err
}
