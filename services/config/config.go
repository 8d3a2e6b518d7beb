// Package config loads the host daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"serialhub-go/types"
	"serialhub-go/x/mathx"
)

// Defaults applied by Parse.
const (
	DefaultBaud      = 115_200
	DefaultRing      = 1024
	DefaultIdleSleep = time.Millisecond
)

// Config is the hubd configuration file.
type Config struct {
	BufferSize int           `yaml:"buffer_size"`
	Newline    string        `yaml:"newline"`
	IdleSleep  time.Duration `yaml:"idle_sleep"`
	Upstream   Upstream      `yaml:"upstream"`
	Ports      []Port        `yaml:"ports"`
	Fan        Fan           `yaml:"fan"`
	RXRing     int           `yaml:"rx_ring"`
	TXRing     int           `yaml:"tx_ring"`
}

// Upstream selects the host link; an empty Device means stdin/stdout.
type Upstream struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Port binds one downstream port to a serial device. Ports left out of the
// file are served by idle channels that never receive.
type Port struct {
	Port               types.Port `yaml:"port"`
	Device             string     `yaml:"device"`
	Baud               int        `yaml:"baud"`
	Newline            string     `yaml:"newline"`
	Parity             string     `yaml:"parity"`
	types.SerialFormat `yaml:",inline"`
}

type Fan struct {
	ActiveLow bool  `yaml:"active_low"`
	Initial   uint8 `yaml:"initial"`
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes raw strictly, applies defaults and validates the result.
func Parse(raw []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.UnmarshalStrict(raw, c); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.BufferSize == 0 {
		c.BufferSize = types.DefaultBufferSize
	}
	if c.Newline == "" {
		c.Newline = "\n"
	}
	if c.IdleSleep == 0 {
		c.IdleSleep = DefaultIdleSleep
	}
	if c.Upstream.Device != "" && c.Upstream.Baud == 0 {
		c.Upstream.Baud = DefaultBaud
	}
	if c.RXRing == 0 {
		c.RXRing = DefaultRing
	}
	if c.TXRing == 0 {
		c.TXRing = DefaultRing
	}
	for i := range c.Ports {
		p := &c.Ports[i]
		if p.Baud == 0 {
			p.Baud = DefaultBaud
		}
		if p.Newline == "" {
			p.Newline = c.Newline
		}
		p.SerialFormat.Parity = types.ParseParity(p.Parity)
	}
}

var (
	ErrBufferSize = errors.New("buffer_size must be between 2 and 256")
	ErrRingSize   = errors.New("ring sizes must be powers of two")
	ErrPort       = errors.New("invalid port")
)

// Validate checks ranges and that no port or device is bound twice.
func (c *Config) Validate() error {
	if !mathx.Between(c.BufferSize, 2, 256) {
		return ErrBufferSize
	}
	if !mathx.IsPow2(c.RXRing) || !mathx.IsPow2(c.TXRing) {
		return ErrRingSize
	}
	if c.Fan.Initial > 100 {
		return fmt.Errorf("fan.initial %d: must be 0..100", c.Fan.Initial)
	}
	var seen [types.Downstream + 1]bool
	devices := map[string]types.Port{}
	if c.Upstream.Device != "" {
		devices[c.Upstream.Device] = types.PortLocal
	}
	for _, p := range c.Ports {
		if !mathx.Between(p.Port, types.FirstPort, types.MaxPort) {
			return fmt.Errorf("%w %d: must be 1..6", ErrPort, p.Port)
		}
		if seen[p.Port] {
			return fmt.Errorf("%w %d: listed twice", ErrPort, p.Port)
		}
		seen[p.Port] = true
		if p.Device == "" {
			return fmt.Errorf("%w %d: device is required", ErrPort, p.Port)
		}
		if prev, ok := devices[p.Device]; ok {
			return fmt.Errorf("%w %d: device %s already used by port %d", ErrPort, p.Port, p.Device, prev)
		}
		devices[p.Device] = p.Port
		if p.Parity != "" && p.Parity != "none" && p.Parity != "even" && p.Parity != "odd" {
			return fmt.Errorf("%w %d: unknown parity %q", ErrPort, p.Port, p.Parity)
		}
	}
	return nil
}

// PortFor returns the configuration of p, if any.
func (c *Config) PortFor(p types.Port) (Port, bool) {
	for _, pc := range c.Ports {
		if pc.Port == p {
			return pc, true
		}
	}
	return Port{}, false
}
