package producer

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestNewUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = New(context.Background(), []string{addr},
		ConnAttempts(2),
		ConnTimeout(time.Millisecond),
		WriteTimeout(time.Second),
		MaxAttempts(1),
	)
	if err == nil {
		t.Fatal("Expected error for unreachable broker")
	}
}

func TestNewNoBrokers(t *testing.T) {
	if _, err := New(context.Background(), nil, ConnTimeout(time.Hour)); err == nil {
		t.Error("Expected error without brokers")
	}
}
