package platform

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cloudkucooland/toofar-sonoff/accessory"
	"github.com/cloudkucooland/toofar-sonoff/config"
)

// Host is what the platform needs from whatever owns the accessories (HomeKit in production)
type Host interface {
	RegisterAccessories(plugin, platform string, accs ...*accessory.Accessory) error
	UnregisterAccessories(plugin, platform string, accs ...*accessory.Accessory) error
	GenerateUUID(name string) string
}

// Control is the interface which all platforms must satisfy
type Control interface {
	// ConfigureAccessory is called by the host for each accessory restored from its cache
	ConfigureAccessory(*accessory.Accessory)
	// DidFinishLaunching is called once the cache is fully restored
	DidFinishLaunching()
	Accessories() []*accessory.Accessory
	GetAccessory(name string) (*accessory.Accessory, bool)
}

// Constructor builds a platform around the host that will own its accessories
type Constructor func(c *config.Config, h Host) Control

type registration struct {
	plugin      string
	constructor Constructor
}

var platforms map[string]registration
var mu sync.Mutex

// RegisterPlatform makes a platform available by name; the first registration wins
func RegisterPlatform(plugin, name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if platforms == nil {
		platforms = make(map[string]registration)
	}
	if _, ok := platforms[name]; !ok {
		platforms[name] = registration{plugin: plugin, constructor: c}
	}
}

// NewPlatform instantiates a registered platform
func NewPlatform(name string, c *config.Config, h Host) (Control, error) {
	mu.Lock()
	r, ok := platforms[name]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown platform: %s", name)
	}
	return r.constructor(c, h), nil
}

// PluginFor reports which plugin registered a platform
func PluginFor(name string) (string, bool) {
	mu.Lock()
	defer mu.Unlock()
	r, ok := platforms[name]
	return r.plugin, ok
}

// Registered lists platform names, sorted
func Registered() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
