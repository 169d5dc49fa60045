package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/slipmux/internal/admin"
	"github.com/danmuck/slipmux/internal/config"
	"github.com/danmuck/slipmux/internal/link"
	"github.com/danmuck/slipmux/internal/logging"
	"github.com/danmuck/slipmux/internal/transport"
)

// process is the wired process: one endpoint per configured peer behind a
// single multiplexer.
type process struct {
	cfg       config.Config
	endpoints map[string]transport.Endpoint
	mux       *link.Multiplexer
}

func buildRuntime(cfg config.Config) (*process, error) {
	retry := transport.RetryFromConfig(cfg.Reconnect)
	endpoints := make(map[string]transport.Endpoint, len(cfg.Links))
	transports := make(map[string]link.Transport, len(cfg.Links))
	for _, lc := range cfg.Links {
		ep, err := transport.Build(lc, retry)
		if err != nil {
			for _, opened := range endpoints {
				_ = opened.Close()
			}
			return nil, err
		}
		endpoints[lc.Peer] = ep
		transports[lc.Peer] = ep
		logging.Infof("slipctl link peer=%q kind=%s endpoint=%q", lc.Peer, lc.Kind, ep.String())
	}
	mux := link.NewMultiplexer(transports, link.WithIgnoreChecksum(cfg.IgnoreChecksum))
	mux.RegisterReceiver(link.HandlerFunc(func(d []byte) error {
		logging.Infof("slipctl.recv len=%d datagram=%X", len(d), d)
		return nil
	}))
	return &process{cfg: cfg, endpoints: endpoints, mux: mux}, nil
}

func (r *process) start(ctx context.Context) {
	for _, ep := range r.endpoints {
		ep.Start(ctx)
	}
}

func run(ctx context.Context, cfg config.Config, input io.Reader) error {
	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.mux.Close()
	rt.start(ctx)

	adminErr := make(chan error, 1)
	if cfg.AdminAddr != "" {
		srv := admin.New(cfg.Name, rt.mux, admin.Options{CorsOrigins: cfg.CorsOrigins, Token: cfg.AdminToken})
		go func() {
			adminErr <- srv.Run(ctx, cfg.AdminAddr)
		}()
	}
	if input != nil {
		go rt.sendLines(input)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-adminErr:
		return err
	}
}

// sendLines reads "<next_hop> <hex>" lines and sends each datagram.
func (r *process) sendLines(input io.Reader) {
	sc := bufio.NewScanner(input)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		nextHop, datagram, err := parseSendLine(line)
		if err != nil {
			logging.Warnf("slipctl.send parse err=%v", err)
			continue
		}
		if err := r.mux.Send(datagram, nextHop); err != nil {
			if errors.Is(err, link.ErrUnknownPeer) {
				logging.Warnf("slipctl.send unroutable next_hop=%q peers=%v", nextHop, r.mux.Peers())
				continue
			}
			logging.Errf("slipctl.send next_hop=%q err=%v", nextHop, err)
			continue
		}
		logging.Debugf("slipctl.send next_hop=%q len=%d", nextHop, len(datagram))
	}
	if err := sc.Err(); err != nil {
		logging.Warnf("slipctl.send input err=%v", err)
	}
}

func parseSendLine(line string) (string, []byte, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty line")
	}
	nextHop := fields[0]
	datagram, err := hex.DecodeString(strings.Join(fields[1:], ""))
	if err != nil {
		return "", nil, fmt.Errorf("datagram hex for %s: %w", nextHop, err)
	}
	return nextHop, datagram, nil
}
