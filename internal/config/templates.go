package config

import (
	"fmt"
	"os"
	"strings"

	gotoml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Template returns a starter config in format "toml" or "yaml".
func Template(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "toml", "":
		return tomlTemplate, nil
	case "yaml", "yml":
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("unknown config format: %s", format)
	}
}

func WriteTemplate(path, format string, overwrite bool) error {
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// Render encodes cfg, typically the effective config after defaults.
func Render(cfg Config, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "toml", "":
		return gotoml.Marshal(cfg)
	case "yaml", "yml":
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unknown config format: %s", format)
	}
}

const tomlTemplate = `name = "slipmux"
ignore_checksum = false
admin_addr = "127.0.0.1:9470"
cors_origins = ["http://localhost:3000"]

[log]
level = "info"

[reconnect]
min_ms = 250
max_ms = 10000
factor = 2.0
jitter = true
dial_timeout_ms = 5000

[[links]]
peer = "192.168.123.2"
kind = "pty"

[[links]]
peer = "10.0.0.2"
kind = "tcp_dial"
addr = "10.0.0.2:9471"

[[links]]
peer = "10.0.1.2"
kind = "tcp_listen"
addr = ":9471"
`

const yamlTemplate = `name: slipmux
ignore_checksum: false
admin_addr: 127.0.0.1:9470
cors_origins:
  - http://localhost:3000
log:
  level: info
reconnect:
  min_ms: 250
  max_ms: 10000
  factor: 2.0
  jitter: true
  dial_timeout_ms: 5000
links:
  - peer: 192.168.123.2
    kind: pty
  - peer: 10.0.0.2
    kind: tcp_dial
    addr: 10.0.0.2:9471
  - peer: 10.0.1.2
    kind: tcp_listen
    addr: ":9471"
`
