package link

import (
	"sync"
	"sync/atomic"

	"github.com/danmuck/slipmux/internal/observability"
	"github.com/danmuck/slipmux/internal/protocol/slip"
)

// LinkStats is a point-in-time view of one link's counters.
type LinkStats struct {
	Peer             string `json:"peer"`
	FramesSent       uint64 `json:"frames_sent"`
	BytesSent        uint64 `json:"bytes_sent"`
	SendErrors       uint64 `json:"send_errors"`
	FramesDelivered  uint64 `json:"frames_delivered"`
	EmptyFrames      uint64 `json:"empty_frames"`
	DeliveryFailures uint64 `json:"delivery_failures"`
	PendingBytes     int    `json:"pending_bytes"`
}

// Link frames datagrams onto one transport and reassembles the datagrams
// arriving from it. The transport is owned by the Link for its lifetime.
type Link struct {
	peer      string
	transport Transport
	reporter  ErrorReporter
	handler   atomic.Pointer[handlerSlot]

	// mu guards rx only; it is released before datagrams are delivered.
	mu sync.Mutex
	rx slip.Reassembler

	framesSent       atomic.Uint64
	bytesSent        atomic.Uint64
	sendErrors       atomic.Uint64
	framesDelivered  atomic.Uint64
	emptyFrames      atomic.Uint64
	deliveryFailures atomic.Uint64
	pending          atomic.Int64
}

// NewLink binds a Link to t. A nil reporter falls back to LogReporter.
func NewLink(peer string, t Transport, reporter ErrorReporter) *Link {
	if reporter == nil {
		reporter = LogReporter{}
	}
	l := &Link{
		peer:      peer,
		transport: t,
		reporter:  reporter,
	}
	t.RegisterReceiver(l.ReceiveBytes)
	return l
}

// Peer is the address of the other end of the link.
func (l *Link) Peer() string {
	return l.peer
}

// Transport returns the transport the link was built on.
func (l *Link) Transport() Transport {
	return l.transport
}

// RegisterReceiver replaces the handler. Passing nil unregisters it, after
// which inbound bytes are discarded without being buffered.
func (l *Link) RegisterReceiver(h Handler) {
	if h == nil {
		l.handler.Store(nil)
		return
	}
	l.handler.Store(&handlerSlot{h: h})
}

// Send encodes datagram into one frame and hands it to the transport.
// Transport errors are returned unmodified.
func (l *Link) Send(datagram []byte) error {
	frame := slip.Encode(datagram)
	err := l.transport.Send(frame)
	observability.RecordFrameSent(l.peer, len(frame), err)
	if err != nil {
		l.sendErrors.Add(1)
		return err
	}
	l.framesSent.Add(1)
	l.bytesSent.Add(uint64(len(frame)))
	return nil
}

// ReceiveBytes is the transport callback. It may be called with chunks of any
// size; completed datagrams are delivered left to right. The buffer is
// updated before any handler runs and the lock is not held during delivery,
// so a handler may send on this same link. A failing handler is reported per
// frame and never stops the remaining frames.
func (l *Link) ReceiveBytes(chunk []byte) {
	slot := l.handler.Load()
	if slot == nil {
		return
	}

	l.mu.Lock()
	datagrams, empty := l.rx.Feed(chunk)
	l.pending.Store(int64(l.rx.Pending()))
	l.mu.Unlock()
	l.emptyFrames.Add(uint64(empty))

	delivered := 0
	for _, d := range datagrams {
		if err := deliver(slot.h, d); err != nil {
			l.deliveryFailures.Add(1)
			observability.RecordDeliveryFailure(l.peer)
			l.reporter.ReportDeliveryError(l.peer, d, err)
			continue
		}
		delivered++
	}
	l.framesDelivered.Add(uint64(delivered))
	observability.RecordFramesReceived(l.peer, delivered, empty)
}

// Stats returns a snapshot of the link counters. It does not take the
// receive lock.
func (l *Link) Stats() LinkStats {
	return LinkStats{
		Peer:             l.peer,
		FramesSent:       l.framesSent.Load(),
		BytesSent:        l.bytesSent.Load(),
		SendErrors:       l.sendErrors.Load(),
		FramesDelivered:  l.framesDelivered.Load(),
		EmptyFrames:      l.emptyFrames.Load(),
		DeliveryFailures: l.deliveryFailures.Load(),
		PendingBytes:     int(l.pending.Load()),
	}
}
