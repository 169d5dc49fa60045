package link_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/danmuck/slipmux/internal/link"
	"github.com/danmuck/slipmux/internal/testutil/testlog"
	"github.com/danmuck/slipmux/internal/transport"
)

func TestMultiplexersOverPipe(t *testing.T) {
	testlog.Start(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Host 10.0.0.1 and host 10.0.0.2 share one point-to-point line.
	lineA, lineB := transport.Pipe("a", "b")
	hostA := link.NewMultiplexer(map[string]link.Transport{"10.0.0.2": lineA})
	hostB := link.NewMultiplexer(map[string]link.Transport{"10.0.0.1": lineB})
	defer hostA.Close()
	defer hostB.Close()

	got := make(chan []byte, 4)
	hostB.RegisterReceiver(link.HandlerFunc(func(d []byte) error {
		got <- d
		return nil
	}))
	lineA.Start(ctx)
	lineB.Start(ctx)

	payloads := [][]byte{
		{0x45, 0x00, 0xC0, 0xDB, 0x01},
		{},
		{0xDB, 0xDC, 0xDD},
	}
	for _, p := range payloads {
		if err := hostA.Send(p, "10.0.0.2"); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	// The empty datagram frames as two END bytes and is never delivered.
	for _, want := range [][]byte{payloads[0], payloads[2]} {
		select {
		case d := <-got:
			if !bytes.Equal(d, want) {
				t.Fatalf("got=% X want=% X", d, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for % X", want)
		}
	}
}
