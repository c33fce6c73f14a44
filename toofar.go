package toofar

import (
	"fmt"
	"path/filepath"

	"github.com/brutella/hc/log"
	"github.com/brutella/hc/util"

	"github.com/cloudkucooland/toofar-sonoff/config"
	"github.com/cloudkucooland/toofar-sonoff/homecontrol"
	"github.com/cloudkucooland/toofar-sonoff/platform"
	"github.com/cloudkucooland/toofar-sonoff/sonoff"
	"github.com/cloudkucooland/toofar-sonoff/tfhttp"
)

// Daemon is everything running for one config
type Daemon struct {
	Bridge   *homecontrol.Bridge
	Platform platform.Control
	HTTP     *tfhttp.Server
}

// RegisterPlatforms makes the built-in platforms known
func RegisterPlatforms() {
	platform.RegisterPlatform(sonoff.PluginName, sonoff.PlatformName, sonoff.New)
}

// StoragePath resolves where hc and the accessory cache live
func StoragePath(c *config.Config) string {
	if filepath.IsAbs(c.StoragePath) {
		return c.StoragePath
	}
	return filepath.Join(c.ConfigDir, c.StoragePath)
}

// Bootstrap sets up the bridge, launches the Sonoff platform against the cache and starts HC
func Bootstrap(c *config.Config, debug bool) (*Daemon, error) {
	RegisterPlatforms()

	path := StoragePath(c)
	c.StoragePath = path
	storage, err := util.NewFileStorage(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get storage %s: %w", path, err)
	}

	bridge := homecontrol.New(c, storage)
	p, err := platform.NewPlatform(sonoff.PlatformName, c, bridge)
	if err != nil {
		return nil, err
	}
	if err := bridge.Launch(sonoff.PluginName, sonoff.PlatformName, p); err != nil {
		return nil, err
	}

	// HC can only be started once all accessories are known
	if err := bridge.Start(); err != nil {
		return nil, err
	}

	d := &Daemon{Bridge: bridge, Platform: p}
	if c.HTTPAddress != "" {
		d.HTTP = tfhttp.Startup(c.HTTPAddress, p, debug)
	}
	log.Info.Printf("%d accessories up", len(p.Accessories()))
	return d, nil
}

// Shutdown is called at process stop
func (d *Daemon) Shutdown() {
	if d.HTTP != nil {
		d.HTTP.Shutdown()
	}
	d.Bridge.Stop()
}
