package accessory

import (
	"sync"

	hcaccessory "github.com/brutella/hc/accessory"
)

// Context is the per-accessory data the platform keeps alongside the record.
// Only Index is persisted, everything else is rebuilt from the device config on every rebind.
type Context struct {
	Index       int    `json:"index"`
	Relay       string `json:"-"`
	Hostname    string `json:"-"`
	BaseURL     string `json:"-"`
	PowerCmdURL string `json:"-"`
	StatusURL   string `json:"-"`
}

// Information mirrors the HomeKit AccessoryInformation service
type Information struct {
	Manufacturer string
	Model        string
	SerialNumber string
}

// Accessory is one outlet as seen by the host: a display name, a stable UUID and the platform context
type Accessory struct {
	DisplayName string  `json:"displayName"`
	UUID        string  `json:"uuid"`
	Context     Context `json:"context"`

	mu     sync.Mutex
	info   Information
	outlet *Outlet
}

// New creates an accessory record with no services attached
func New(displayName, uuid string) *Accessory {
	return &Accessory{
		DisplayName: displayName,
		UUID:        uuid,
	}
}

// AddOutlet attaches the outlet service, replacing any previous one
func (a *Accessory) AddOutlet(name string) *Outlet {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outlet = NewOutlet(name)
	return a.outlet
}

// Outlet returns the outlet service, creating one named after the accessory if it was restored without services
func (a *Accessory) Outlet() *Outlet {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.outlet == nil {
		a.outlet = NewOutlet(a.DisplayName)
	}
	return a.outlet
}

// SetInformation replaces the accessory information
func (a *Accessory) SetInformation(info Information) {
	a.mu.Lock()
	a.info = info
	a.mu.Unlock()
}

// Information returns a copy of the accessory information
func (a *Accessory) Information() Information {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.info
}

// HCInfo converts the record into what brutella/hc needs to build the HomeKit accessory
func (a *Accessory) HCInfo(id uint64) hcaccessory.Info {
	info := a.Information()
	return hcaccessory.Info{
		Name:         a.DisplayName,
		SerialNumber: info.SerialNumber,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		ID:           id,
	}
}
