package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
)

const DefaultReadSize = 4096

// Stream adapts any io.ReadWriteCloser (socket, pty, device) to a link
// transport. One goroutine reads, so chunks reach the receiver in order.
type Stream struct {
	name string
	rwc  io.ReadWriteCloser

	recvMu sync.RWMutex
	recv   func([]byte)

	writeMu sync.Mutex

	startOnce sync.Once
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}

	errMu sync.Mutex
	err   error
}

func NewStream(name string, rwc io.ReadWriteCloser) *Stream {
	return &Stream{
		name: name,
		rwc:  rwc,
		done: make(chan struct{}),
	}
}

func (s *Stream) String() string {
	return s.name
}

func (s *Stream) RegisterReceiver(fn func([]byte)) {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()
	s.recv = fn
}

// Send writes b in full. Concurrent senders never interleave frames.
func (s *Stream) Send(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.rwc.Write(b)
	return err
}

// Start launches the read loop; it stops when ctx is done or the underlying
// reader fails. Calling Start more than once has no effect.
func (s *Stream) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.readLoop()
		go func() {
			select {
			case <-ctx.Done():
				_ = s.Close()
			case <-s.done:
			}
		}()
	})
}

// Done is closed once the read loop exits.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that ended the read loop. EOF and local close are
// reported as nil.
func (s *Stream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.rwc.Close()
	})
	return s.closeErr
}

func (s *Stream) readLoop() {
	defer close(s.done)
	buf := make([]byte, DefaultReadSize)
	for {
		n, err := s.rwc.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.dispatch(chunk)
		}
		if err != nil {
			if !isClosedErr(err) {
				s.errMu.Lock()
				s.err = err
				s.errMu.Unlock()
			}
			_ = s.Close()
			return
		}
	}
}

func (s *Stream) dispatch(chunk []byte) {
	s.recvMu.RLock()
	fn := s.recv
	s.recvMu.RUnlock()
	if fn != nil {
		fn(chunk)
	}
}

func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
