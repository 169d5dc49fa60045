package link

import (
	"sync"
)

// fakeTransport records sent frames and exposes the registered receiver.
type fakeTransport struct {
	mu      sync.Mutex
	recv    func([]byte)
	sent    [][]byte
	sendErr error
	closed  bool
}

func (f *fakeTransport) RegisterReceiver(fn func([]byte)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recv = fn
}

func (f *fakeTransport) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), b...))
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) push(chunk []byte) {
	f.mu.Lock()
	fn := f.recv
	f.mu.Unlock()
	fn(chunk)
}

func (f *fakeTransport) frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

// collector is a Handler that records every datagram.
type collector struct {
	mu   sync.Mutex
	got  [][]byte
	fail func(d []byte) error
}

func (c *collector) HandleDatagram(d []byte) error {
	c.mu.Lock()
	c.got = append(c.got, d)
	fail := c.fail
	c.mu.Unlock()
	if fail != nil {
		return fail(d)
	}
	return nil
}

func (c *collector) datagrams() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.got...)
}

// loopbackTransport feeds every sent frame straight back to its own receiver
// on the caller's goroutine.
type loopbackTransport struct {
	mu   sync.Mutex
	recv func([]byte)
}

func (lb *loopbackTransport) RegisterReceiver(fn func([]byte)) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.recv = fn
}

func (lb *loopbackTransport) Send(b []byte) error {
	lb.mu.Lock()
	fn := lb.recv
	lb.mu.Unlock()
	if fn != nil {
		fn(append([]byte(nil), b...))
	}
	return nil
}
