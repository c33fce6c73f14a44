package config

import (
	"fmt"

	"github.com/brutella/hc"
	"github.com/brutella/hc/log"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the primary daemon configuration...
type Config struct {
	ConfigDir  string `json:"-"` // passed in from CLI
	ConfigFile string `json:"-"` // server.json

	// what this bridge shows as
	Name string `json:"name" env:"TOOFAR_NAME" env-default:"TooFar"`
	// net.Dial address format, empty disables the control channel
	HTTPAddress string `json:"httpAddress" env:"TOOFAR_HTTP_ADDRESS"`
	// HomeKit setup code
	Pin string `json:"pin" env:"TOOFAR_PIN" env-default:"00102003"`
	// HomeKit port, random if unset
	Port string `json:"port" env:"TOOFAR_PORT"`
	// hc pairing data and the accessory cache, relative to ConfigDir
	StoragePath string `json:"storagePath" env:"TOOFAR_STORAGE" env-default:"db"`

	Devices []DeviceConfig `json:"devices"`
}

// DeviceConfig is one Sonoff as the user declared it
type DeviceConfig struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
	Relay    string `json:"relay"`    // empty for single relay modules, "1", "2" ... for the Dual/4CH
	Password string `json:"password"` // web admin password, sent in the clear
}

// defaults for absent device fields
const (
	DefaultName     = "Sonoff"
	DefaultHostname = "sonoff"
)

// Load reads a JSON config file, applies environment overrides and normalizes the device list
func Load(file string) (*Config, error) {
	var c Config
	if err := cleanenv.ReadConfig(file, &c); err != nil {
		return nil, fmt.Errorf("unable to read config %s: %w", file, err)
	}
	c.ConfigFile = file
	c.Devices = Normalize(c.Devices)
	log.Debug.Printf("loaded config: %d devices", len(c.Devices))
	return &c, nil
}

// Normalize fills in defaults for every device, keeping order and length.
// A field is defaulted iff it is empty.
func Normalize(devices []DeviceConfig) []DeviceConfig {
	out := make([]DeviceConfig, len(devices))
	for i, d := range devices {
		if d.Name == "" {
			d.Name = DefaultName
		}
		if d.Hostname == "" {
			d.Hostname = DefaultHostname
		}
		// Relay and Password default to "", nothing to fill
		out[i] = d
	}
	return out
}

// HCConfig is the brutella/hc transport configuration derived from ours
func (c *Config) HCConfig(storagePath string) hc.Config {
	return hc.Config{
		Pin:         c.Pin,
		Port:        c.Port,
		StoragePath: storagePath,
	}
}
