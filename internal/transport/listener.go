package transport

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/danmuck/slipmux/internal/logging"
)

// Listener is a TCP server transport holding at most one peer connection.
// A newly accepted connection replaces the previous one.
type Listener struct {
	ln net.Listener

	mu     sync.Mutex
	recv   func([]byte)
	active *Stream
	closed bool
}

// Listen binds addr. Call Start to begin accepting.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln}, nil
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *Listener) String() string {
	return "tcp-listen:" + l.ln.Addr().String()
}

func (l *Listener) RegisterReceiver(fn func([]byte)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recv = fn
}

// Send fails with ErrClosed after Close and ErrNotConnected with no peer.
func (l *Listener) Send(b []byte) error {
	l.mu.Lock()
	s, closed := l.active, l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if s == nil {
		return ErrNotConnected
	}
	return s.Send(b)
}

func (l *Listener) Connected() bool {
	return l.current() != nil
}

func (l *Listener) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()
	go l.serve(ctx)
}

func (l *Listener) Close() error {
	l.mu.Lock()
	l.closed = true
	active := l.active
	l.active = nil
	l.mu.Unlock()
	if active != nil {
		_ = active.Close()
	}
	err := l.ln.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (l *Listener) serve(ctx context.Context) {
	logging.Infof("transport.Listener listening addr=%q", l.ln.Addr().String())
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				logging.Errf("transport.Listener accept err=%v", err)
			}
			return
		}
		remote := conn.RemoteAddr().String()
		s := NewStream(remote, conn)
		s.RegisterReceiver(l.dispatch)

		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			_ = conn.Close()
			return
		}
		prev := l.active
		l.active = s
		l.mu.Unlock()
		if prev != nil {
			logging.Warnf("transport.Listener replacing peer old=%q new=%q", prev.String(), remote)
			_ = prev.Close()
		}
		logging.Infof("transport.Listener peer connected remote=%q", remote)

		s.Start(ctx)
		go func() {
			<-s.Done()
			l.mu.Lock()
			if l.active == s {
				l.active = nil
			}
			l.mu.Unlock()
			logging.Warnf("transport.Listener peer disconnected remote=%q err=%v", remote, s.Err())
		}()
	}
}

func (l *Listener) current() *Stream {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

func (l *Listener) dispatch(chunk []byte) {
	l.mu.Lock()
	fn := l.recv
	l.mu.Unlock()
	if fn != nil {
		fn(chunk)
	}
}
