package config

import (
	"bytes"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/slipmux/internal/logging"
	"gopkg.in/yaml.v3"
)

// Kind selects the transport under one link.
type Kind string

const (
	KindTCPDial   Kind = "tcp_dial"
	KindTCPListen Kind = "tcp_listen"
	KindPTY       Kind = "pty"
	KindDevice    Kind = "device"
)

// Config is the slipctl process configuration.
type Config struct {
	Name string `toml:"name" yaml:"name"`
	// IgnoreChecksum is accepted for compatibility and has no effect yet.
	IgnoreChecksum bool            `toml:"ignore_checksum" yaml:"ignore_checksum"`
	AdminAddr      string          `toml:"admin_addr,omitempty" yaml:"admin_addr,omitempty"`
	AdminToken     string          `toml:"admin_token,omitempty" yaml:"admin_token,omitempty"`
	CorsOrigins    []string        `toml:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
	Log            LogConfig       `toml:"log" yaml:"log"`
	Reconnect      ReconnectConfig `toml:"reconnect" yaml:"reconnect"`
	Links          []LinkConfig    `toml:"links" yaml:"links"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// ReconnectConfig shapes tcp_dial backoff, in milliseconds.
type ReconnectConfig struct {
	MinMS         int     `toml:"min_ms" yaml:"min_ms"`
	MaxMS         int     `toml:"max_ms" yaml:"max_ms"`
	Factor        float64 `toml:"factor" yaml:"factor"`
	Jitter        bool    `toml:"jitter" yaml:"jitter"`
	DialTimeoutMS int     `toml:"dial_timeout_ms" yaml:"dial_timeout_ms"`
}

// LinkConfig binds one peer address to a transport.
type LinkConfig struct {
	Peer   string `toml:"peer" yaml:"peer"`
	Kind   Kind   `toml:"kind" yaml:"kind"`
	Addr   string `toml:"addr,omitempty" yaml:"addr,omitempty"`
	Device string `toml:"device,omitempty" yaml:"device,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Name: "slipmux",
		Log:  LogConfig{Level: "info"},
		Reconnect: ReconnectConfig{
			MinMS:         250,
			MaxMS:         10000,
			Factor:        2,
			Jitter:        true,
			DialTimeoutMS: 5000,
		},
	}
}

// Load reads a TOML file, or YAML when the extension is .yaml/.yml, on top
// of DefaultConfig and validates the result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := loadTOML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func loadTOML(path string, out *Config) error {
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func loadYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// Normalize trims whitespace and lowercases kinds.
func Normalize(cfg Config) Config {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.AdminAddr = strings.TrimSpace(cfg.AdminAddr)
	cfg.AdminToken = strings.TrimSpace(cfg.AdminToken)
	cfg.Log.Level = strings.TrimSpace(cfg.Log.Level)
	links := make([]LinkConfig, 0, len(cfg.Links))
	for _, lc := range cfg.Links {
		lc.Peer = strings.TrimSpace(lc.Peer)
		lc.Kind = Kind(strings.ToLower(strings.TrimSpace(string(lc.Kind))))
		lc.Addr = strings.TrimSpace(lc.Addr)
		lc.Device = strings.TrimSpace(lc.Device)
		links = append(links, lc)
	}
	cfg.Links = links
	return cfg
}

func Validate(cfg Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("name is required")
	}
	if cfg.Log.Level != "" {
		if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
			return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
		}
	}
	if err := ValidateReconnect(cfg.Reconnect); err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}
	if len(cfg.Links) == 0 {
		return fmt.Errorf("at least one link is required")
	}
	seen := make(map[string]int, len(cfg.Links))
	for i, lc := range cfg.Links {
		if err := ValidateLink(lc); err != nil {
			return fmt.Errorf("links[%d] invalid: %w", i, err)
		}
		if prev, ok := seen[lc.Peer]; ok {
			return fmt.Errorf("links[%d] invalid: peer %s already bound by links[%d]", i, lc.Peer, prev)
		}
		seen[lc.Peer] = i
	}
	return nil
}

func ValidateLink(lc LinkConfig) error {
	addr, err := netip.ParseAddr(lc.Peer)
	if err != nil || !addr.Is4() {
		return fmt.Errorf("peer %q must be an IPv4 address (x.y.z.w)", lc.Peer)
	}
	switch lc.Kind {
	case KindTCPDial, KindTCPListen:
		if lc.Addr == "" {
			return fmt.Errorf("addr is required for kind %s", lc.Kind)
		}
	case KindDevice:
		if lc.Device == "" {
			return fmt.Errorf("device is required for kind %s", lc.Kind)
		}
	case KindPTY:
	default:
		return fmt.Errorf("unknown kind %q", lc.Kind)
	}
	return nil
}

func ValidateReconnect(rc ReconnectConfig) error {
	if rc.MinMS <= 0 {
		return fmt.Errorf("min_ms must be positive")
	}
	if rc.MaxMS < rc.MinMS {
		return fmt.Errorf("max_ms must be >= min_ms")
	}
	if rc.Factor < 1 {
		return fmt.Errorf("factor must be >= 1")
	}
	if rc.DialTimeoutMS < 0 {
		return fmt.Errorf("dial_timeout_ms must not be negative")
	}
	return nil
}
