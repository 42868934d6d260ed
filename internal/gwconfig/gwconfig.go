// Package gwconfig defines the in-memory configuration surface of
// spec.md §6. Loading/saving the backing file is explicitly out of
// scope (an external collaborator owns that); this package only
// defines the struct, its defaults, validation, and a YAML codec
// (via gopkg.in/yaml.v3, the prior Go port's dependency) so that owning
// collaborator — and tests — can round-trip a Config value.
package gwconfig

import (
	"fmt"
	"time"

	"github.com/n7gw/tncgw/internal/callsign"
	"gopkg.in/yaml.v3"
)

// Config mirrors every key recognized by the core (spec.md §6).
type Config struct {
	MyCall      string `yaml:"MYCALL"`
	MyLocation  string `yaml:"MYLOCATION"` // Maidenhead grid, used absent GPS
	RadioMAC    string `yaml:"RADIO_MAC"`  // BLE peer address

	TXDelay int `yaml:"TXDELAY"` // units of 10ms

	Retry     int `yaml:"RETRY"`
	RetryFast int `yaml:"RETRY_FAST"` // seconds
	RetrySlow int `yaml:"RETRY_SLOW"` // seconds

	Digipeat bool   `yaml:"DIGIPEAT"`
	MyAlias  string `yaml:"MYALIAS"`

	AutoAck bool `yaml:"AUTO_ACK"`

	Beacon         bool   `yaml:"BEACON"`
	BeaconInterval int    `yaml:"BEACON_INTERVAL"` // seconds
	BeaconPath     string `yaml:"BEACON_PATH"`
	BeaconSymbol   string `yaml:"BEACON_SYMBOL"`
	BeaconComment  string `yaml:"BEACON_COMMENT"`

	DebugBufferMB int `yaml:"DEBUG_BUFFER"` // 0 or less gives a 1 MB ring, the same size as the default

	AGWPEPort int `yaml:"AGWPE_PORT"`
	TNCPort   int `yaml:"TNC_PORT"`
	WebUIPort int `yaml:"WEBUI_PORT"`

	WebUIPassword string `yaml:"WEBUI_PASSWORD"`
}

// Default matches the defaults named across spec.md §4 and §6.
func Default() Config {
	return Config{
		MyLocation:     "",
		TXDelay:        30,
		Retry:          3,
		RetryFast:      20,
		RetrySlow:      600,
		Digipeat:       false,
		MyAlias:        "WIDE1",
		AutoAck:        true,
		Beacon:         false,
		BeaconInterval: 600,
		BeaconPath:     "WIDE1-1,WIDE2-1",
		BeaconSymbol:   "/>",
		DebugBufferMB:  1,
		AGWPEPort:      8000,
		TNCPort:        8001,
		WebUIPort:      8002,
	}
}

// Validate checks the invariants the rest of the core assumes hold.
func (c Config) Validate() error {
	if c.MyCall == "" {
		return fmt.Errorf("gwconfig: MYCALL is required")
	}
	if _, err := callsign.Parse(c.MyCall); err != nil {
		return fmt.Errorf("gwconfig: MYCALL: %w", err)
	}
	if c.Retry < 1 {
		return fmt.Errorf("gwconfig: RETRY must be >= 1")
	}
	if c.RetryFast < 1 || c.RetrySlow < 1 {
		return fmt.Errorf("gwconfig: RETRY_FAST/RETRY_SLOW must be >= 1 second")
	}
	if c.AGWPEPort == c.TNCPort || c.AGWPEPort == c.WebUIPort || c.TNCPort == c.WebUIPort {
		return fmt.Errorf("gwconfig: AGWPE_PORT, TNC_PORT and WEBUI_PORT must be distinct")
	}
	return nil
}

// FastRetryInterval and SlowRetryInterval translate the configured
// second counts into time.Duration for the message manager.
func (c Config) FastRetryInterval() time.Duration { return time.Duration(c.RetryFast) * time.Second }
func (c Config) SlowRetryInterval() time.Duration { return time.Duration(c.RetrySlow) * time.Second }

// MarshalYAML and UnmarshalYAML round-trip a Config for the owning
// collaborator's file format, and for tests.
func (c Config) MarshalYAML() (any, error) {
	type plain Config
	return plain(c), nil
}

func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plain Config
	p := plain(Default())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = Config(p)
	return nil
}
