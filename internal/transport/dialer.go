package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/danmuck/slipmux/internal/logging"
	"github.com/jpillora/backoff"
)

// Dialer is a TCP client transport that keeps reconnecting to addr until
// closed.
type Dialer struct {
	addr  string
	retry RetryConfig

	mu     sync.Mutex
	recv   func([]byte)
	active *Stream
	cancel context.CancelFunc
	closed bool
}

func NewDialer(addr string, retry RetryConfig) *Dialer {
	return &Dialer{addr: addr, retry: retry}
}

func (d *Dialer) String() string {
	return "tcp-dial:" + d.addr
}

func (d *Dialer) RegisterReceiver(fn func([]byte)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recv = fn
}

// Send fails with ErrClosed after Close and ErrNotConnected while down.
func (d *Dialer) Send(b []byte) error {
	d.mu.Lock()
	s, closed := d.active, d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if s == nil {
		return ErrNotConnected
	}
	return s.Send(b)
}

// Connected reports whether a connection is currently up.
func (d *Dialer) Connected() bool {
	return d.current() != nil
}

func (d *Dialer) Start(ctx context.Context) {
	d.mu.Lock()
	if d.closed || d.cancel != nil {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.mu.Unlock()
	go d.run(ctx)
}

func (d *Dialer) Close() error {
	d.mu.Lock()
	d.closed = true
	cancel := d.cancel
	active := d.active
	d.active = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if active != nil {
		return active.Close()
	}
	return nil
}

func (d *Dialer) run(ctx context.Context) {
	boff := &backoff.Backoff{
		Min:    d.retry.Min,
		Max:    d.retry.Max,
		Factor: d.retry.Factor,
		Jitter: d.retry.Jitter,
	}
	dialer := net.Dialer{Timeout: d.retry.DialTimeout}
	for ctx.Err() == nil {
		conn, err := dialer.DialContext(ctx, "tcp", d.addr)
		if err != nil {
			wait := boff.Duration()
			logging.Warnf("transport.Dialer dial failed addr=%q retry_in=%s err=%v", d.addr, wait, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		boff.Reset()

		s := NewStream(conn.RemoteAddr().String(), conn)
		s.RegisterReceiver(d.dispatch)
		if !d.setActive(s) {
			_ = s.Close()
			return
		}
		logging.Infof("transport.Dialer connected addr=%q", d.addr)
		s.Start(ctx)
		<-s.Done()
		d.clearActive(s)
		logging.Warnf("transport.Dialer disconnected addr=%q err=%v", d.addr, s.Err())
	}
}

func (d *Dialer) setActive(s *Stream) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.active = s
	return true
}

func (d *Dialer) clearActive(s *Stream) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == s {
		d.active = nil
	}
}

func (d *Dialer) current() *Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *Dialer) dispatch(chunk []byte) {
	d.mu.Lock()
	fn := d.recv
	d.mu.Unlock()
	if fn != nil {
		fn(chunk)
	}
}
