package link

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	"github.com/danmuck/slipmux/internal/logging"
	"github.com/danmuck/slipmux/internal/observability"
)

var ErrUnknownPeer = errors.New("link: unknown next hop")

type muxOptions struct {
	ignoreChecksum bool
	reporter       ErrorReporter
}

type Option func(*muxOptions)

// WithIgnoreChecksum records the ignore-checksum setting. No checksum is
// computed or verified at this layer, so the value currently has no effect.
func WithIgnoreChecksum(ignore bool) Option {
	return func(o *muxOptions) {
		o.ignoreChecksum = ignore
	}
}

// WithErrorReporter sets the reporter shared by every link.
func WithErrorReporter(r ErrorReporter) Option {
	return func(o *muxOptions) {
		o.reporter = r
	}
}

// Multiplexer owns one Link per peer address. Outbound datagrams are routed
// by next hop; inbound datagrams from every link are forwarded to a single
// upward receiver, without an indication of the originating peer.
type Multiplexer struct {
	links          map[string]*Link
	upward         atomic.Pointer[handlerSlot]
	ignoreChecksum bool
}

// NewMultiplexer builds a Link for each transport, keyed by the peer address
// of the other end (dotted quad, e.g. "192.168.1.2").
func NewMultiplexer(transports map[string]Transport, opts ...Option) *Multiplexer {
	var o muxOptions
	for _, opt := range opts {
		opt(&o)
	}
	m := &Multiplexer{
		links:          make(map[string]*Link, len(transports)),
		ignoreChecksum: o.ignoreChecksum,
	}
	for peer, t := range transports {
		l := NewLink(peer, t, o.reporter)
		l.RegisterReceiver(HandlerFunc(m.fanIn))
		m.links[peer] = l
	}
	return m
}

// RegisterReceiver replaces the upward receiver; the last registration wins.
func (m *Multiplexer) RegisterReceiver(h Handler) {
	if h == nil {
		m.upward.Store(nil)
		return
	}
	m.upward.Store(&handlerSlot{h: h})
}

// Send routes datagram through the link whose peer is nextHop. An unknown
// next hop fails with ErrUnknownPeer and touches no link.
func (m *Multiplexer) Send(datagram []byte, nextHop string) error {
	l, ok := m.links[nextHop]
	if !ok {
		observability.RecordUnroutable()
		return fmt.Errorf("%w: %q", ErrUnknownPeer, nextHop)
	}
	return l.Send(datagram)
}

// fanIn drops datagrams that arrive before an upward receiver is registered.
func (m *Multiplexer) fanIn(datagram []byte) error {
	slot := m.upward.Load()
	if slot == nil {
		observability.RecordDropped()
		logging.Debugf("link.Multiplexer dropped datagram len=%d reason=no_receiver", len(datagram))
		return nil
	}
	return slot.h.HandleDatagram(datagram)
}

// IgnoreChecksum reports the configured flag. It is inert.
func (m *Multiplexer) IgnoreChecksum() bool {
	return m.ignoreChecksum
}

func (m *Multiplexer) Link(peer string) (*Link, bool) {
	l, ok := m.links[peer]
	return l, ok
}

// Peers returns the configured peer addresses in sorted order.
func (m *Multiplexer) Peers() []string {
	out := make([]string, 0, len(m.links))
	for peer := range m.links {
		out = append(out, peer)
	}
	sort.Strings(out)
	return out
}

func (m *Multiplexer) Stats() []LinkStats {
	peers := m.Peers()
	out := make([]LinkStats, 0, len(peers))
	for _, peer := range peers {
		out = append(out, m.links[peer].Stats())
	}
	return out
}

// Close closes every transport that implements io.Closer.
func (m *Multiplexer) Close() error {
	var errs []error
	for _, peer := range m.Peers() {
		c, ok := m.links[peer].transport.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close link %s: %w", peer, err))
		}
	}
	return errors.Join(errs...)
}
