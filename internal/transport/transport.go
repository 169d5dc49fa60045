package transport

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotConnected = errors.New("transport: not connected")
	ErrClosed       = errors.New("transport: closed")
)

// Endpoint is a startable, closable link transport.
type Endpoint interface {
	RegisterReceiver(fn func(chunk []byte))
	Send(b []byte) error
	Start(ctx context.Context)
	Close() error
	String() string
}

// RetryConfig shapes reconnect backoff for dialing endpoints.
type RetryConfig struct {
	Min         time.Duration
	Max         time.Duration
	Factor      float64
	Jitter      bool
	DialTimeout time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Min:         250 * time.Millisecond,
		Max:         10 * time.Second,
		Factor:      2,
		Jitter:      true,
		DialTimeout: 5 * time.Second,
	}
}
