package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/slipmux/internal/testutil/testlog"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDialerAndListenerExchange(t *testing.T) {
	testlog.Start(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	fromDialer := newSink(4)
	ln.RegisterReceiver(fromDialer.receive)
	ln.Start(ctx)

	retry := DefaultRetryConfig()
	retry.Min = 10 * time.Millisecond
	retry.Max = 50 * time.Millisecond
	d := NewDialer(ln.Addr().String(), retry)
	defer d.Close()
	fromListener := newSink(4)
	d.RegisterReceiver(fromListener.receive)

	if err := d.Send([]byte("early")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected before start, got %v", err)
	}
	d.Start(ctx)
	waitFor(t, "dialer connected", d.Connected)
	waitFor(t, "listener connected", ln.Connected)

	if err := d.Send([]byte("ping")); err != nil {
		t.Fatalf("dialer send: %v", err)
	}
	if got := fromDialer.wait(t); string(got) != "ping" {
		t.Fatalf("listener received %q", got)
	}
	if err := ln.Send([]byte("pong")); err != nil {
		t.Fatalf("listener send: %v", err)
	}
	if got := fromListener.wait(t); string(got) != "pong" {
		t.Fatalf("dialer received %q", got)
	}
}

func TestDialerRetriesUntilListenerAppears(t *testing.T) {
	testlog.Start(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reserve a port, then release it so the first dials fail.
	probe, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := probe.Addr().String()
	_ = probe.Close()

	retry := DefaultRetryConfig()
	retry.Min = 10 * time.Millisecond
	retry.Max = 40 * time.Millisecond
	d := NewDialer(addr, retry)
	defer d.Close()
	d.Start(ctx)

	time.Sleep(60 * time.Millisecond)
	if d.Connected() {
		t.Fatalf("dialer connected without a listener")
	}

	ln, err := Listen(addr)
	if err != nil {
		t.Skipf("port %s reused before rebinding: %v", addr, err)
	}
	defer ln.Close()
	ln.Start(ctx)
	waitFor(t, "dialer reconnect", d.Connected)
}

func TestSendAfterCloseReturnsErrClosed(t *testing.T) {
	testlog.Start(t)

	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	d := NewDialer(ln.Addr().String(), DefaultRetryConfig())

	if err := ln.Send([]byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected before close, got %v", err)
	}
	if err := ln.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close dialer: %v", err)
	}
	if err := ln.Send([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("listener: expected ErrClosed, got %v", err)
	}
	if err := d.Send([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("dialer: expected ErrClosed, got %v", err)
	}
}
