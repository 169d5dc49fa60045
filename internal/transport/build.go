package transport

import (
	"fmt"
	"time"

	"github.com/danmuck/slipmux/internal/config"
	"github.com/danmuck/slipmux/internal/logging"
)

func RetryFromConfig(rc config.ReconnectConfig) RetryConfig {
	return RetryConfig{
		Min:         time.Duration(rc.MinMS) * time.Millisecond,
		Max:         time.Duration(rc.MaxMS) * time.Millisecond,
		Factor:      rc.Factor,
		Jitter:      rc.Jitter,
		DialTimeout: time.Duration(rc.DialTimeoutMS) * time.Millisecond,
	}
}

// Build opens the endpoint described by lc. The endpoint is not started.
func Build(lc config.LinkConfig, retry RetryConfig) (Endpoint, error) {
	switch lc.Kind {
	case config.KindTCPDial:
		return NewDialer(lc.Addr, retry), nil
	case config.KindTCPListen:
		ln, err := Listen(lc.Addr)
		if err != nil {
			return nil, fmt.Errorf("transport: listen %s for peer %s: %w", lc.Addr, lc.Peer, err)
		}
		return ln, nil
	case config.KindPTY:
		p, err := OpenPTY()
		if err != nil {
			return nil, err
		}
		logging.Warnf("transport.Build pty ready peer=%q device=%q", lc.Peer, p.Name())
		return p, nil
	case config.KindDevice:
		dev, err := OpenDevice(lc.Device)
		if err != nil {
			return nil, err
		}
		return dev, nil
	default:
		return nil, fmt.Errorf("transport: unknown kind %q for peer %s", lc.Kind, lc.Peer)
	}
}
