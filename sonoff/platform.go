package sonoff

import (
	"sync"

	"github.com/brutella/hc/log"

	"github.com/cloudkucooland/toofar-sonoff/accessory"
	"github.com/cloudkucooland/toofar-sonoff/config"
	"github.com/cloudkucooland/toofar-sonoff/platform"
)

const (
	PluginName   = "toofar-sonoff"
	PlatformName = "Sonoff"
)

// Platform is the handle to the Sonoff devices
type Platform struct {
	devices []config.DeviceConfig
	host    platform.Host
	client  Requester

	mu          sync.Mutex
	accessories []*accessory.Accessory
}

// New is the platform.Constructor for Sonoff
func New(c *config.Config, h platform.Host) platform.Control {
	return NewWithClient(c, h, NewClient())
}

// NewWithClient is New with a caller supplied device client
func NewWithClient(c *config.Config, h platform.Host, r Requester) *Platform {
	return &Platform{
		devices: config.Normalize(c.Devices),
		host:    h,
		client:  r,
	}
}

// ConfigureAccessory takes an accessory restored from the host cache. It is only remembered here,
// DidFinishLaunching decides whether it stays.
func (p *Platform) ConfigureAccessory(a *accessory.Accessory) {
	p.mu.Lock()
	p.accessories = append(p.accessories, a)
	p.mu.Unlock()
}

// DidFinishLaunching is called by the host once all cached accessories are restored
func (p *Platform) DidFinishLaunching() {
	log.Info.Print("cached accessories loaded")
	p.Reconcile()
}

// Reconcile aligns the registry with the configured devices: cached accessories whose device
// is gone are removed, renamed ones are recreated, the rest are rebound, and every
// configured index without an accessory gets a new one.
func (p *Platform) Reconcile() {
	p.mu.Lock()
	defer p.mu.Unlock()

	cached := make([]*accessory.Accessory, len(p.accessories))
	copy(cached, p.accessories)

	for _, a := range cached {
		// already dropped by a batch removal of its name
		if !p.contains(a) {
			continue
		}

		index := a.Context.Index
		if index < 0 || index >= len(p.devices) {
			p.removeAccessory(a.DisplayName)
			continue
		}

		if p.devices[index].Name != a.DisplayName {
			// a failed removal keeps the old record, recreating would register the index twice
			if p.removeAccessory(a.DisplayName) {
				p.addAccessory(index)
			}
			continue
		}

		p.configureAccessory(a)
	}

	represented := make(map[int]bool, len(p.accessories))
	for _, a := range p.accessories {
		represented[a.Context.Index] = true
	}
	for i := range p.devices {
		if !represented[i] {
			p.addAccessory(i)
		}
	}
}

// Accessories returns a snapshot of the registry
func (p *Platform) Accessories() []*accessory.Accessory {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*accessory.Accessory, len(p.accessories))
	copy(out, p.accessories)
	return out
}

// GetAccessory looks up an accessory by display name
func (p *Platform) GetAccessory(name string) (*accessory.Accessory, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.accessories {
		if a.DisplayName == name {
			return a, true
		}
	}
	return nil, false
}

// Devices returns the normalized device list
func (p *Platform) Devices() []config.DeviceConfig {
	out := make([]config.DeviceConfig, len(p.devices))
	copy(out, p.devices)
	return out
}

func (p *Platform) addAccessory(index int) {
	name := p.devices[index].Name
	a := accessory.New(name, p.host.GenerateUUID(name))
	a.Context = accessory.Context{Index: index}
	a.AddOutlet(name)

	log.Info.Printf("added %s", name)
	if err := p.host.RegisterAccessories(PluginName, PlatformName, a); err != nil {
		log.Info.Printf("unable to register %s: %s", name, err.Error())
		return
	}
	p.accessories = append(p.accessories, a)
	p.configureAccessory(a)
}

// configureAccessory rebinds an accessory to the device at its index
func (p *Platform) configureAccessory(a *accessory.Accessory) {
	d := p.devices[a.Context.Index]

	base := BaseURL(d.Hostname, d.Password)
	a.Context = accessory.Context{
		Index:       a.Context.Index,
		Relay:       d.Relay,
		Hostname:    d.Hostname,
		BaseURL:     base,
		PowerCmdURL: PowerCmdURL(base, d.Relay),
		StatusURL:   StatusURL(base),
	}

	a.SetInformation(accessory.Information{
		Manufacturer: "Sonoff",
		Model:        "Basic",
		SerialNumber: d.Hostname,
	})

	p.bind(a)
	log.Info.Printf("loaded accessory %s", a.DisplayName)
}

// removeAccessory drops every accessory carrying name, as one batch. It reports whether the host let them go.
func (p *Platform) removeAccessory(name string) bool {
	log.Info.Printf("removing accessory %s", name)

	var remaining, removed []*accessory.Accessory
	for _, a := range p.accessories {
		if a.DisplayName == name {
			removed = append(removed, a)
		} else {
			remaining = append(remaining, a)
		}
	}
	if len(removed) == 0 {
		return false
	}

	if err := p.host.UnregisterAccessories(PluginName, PlatformName, removed...); err != nil {
		log.Info.Printf("unable to unregister %s: %s", name, err.Error())
		return false
	}
	p.accessories = remaining
	log.Info.Printf("%d accessories removed", len(removed))
	return true
}

func (p *Platform) contains(a *accessory.Accessory) bool {
	for _, v := range p.accessories {
		if v == a {
			return true
		}
	}
	return false
}
