package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestLag(t *testing.T) {
	tests := []struct {
		name string
		msg  kafka.Message
		want int64
	}{
		{"caught up", kafka.Message{Offset: 9, HighWaterMark: 10}, 0},
		{"behind", kafka.Message{Offset: 4, HighWaterMark: 10}, 5},
		{"unknown high water mark", kafka.Message{Offset: 4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lag(tt.msg); got != tt.want {
				t.Errorf("lag = %d, want %d", got, tt.want)
			}
		})
	}
}
