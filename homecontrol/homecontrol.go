package homecontrol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/brutella/hc"
	hcaccessory "github.com/brutella/hc/accessory"
	"github.com/brutella/hc/log"
	"github.com/brutella/hc/util"
	"github.com/google/uuid"

	"github.com/cloudkucooland/toofar-sonoff/accessory"
	"github.com/cloudkucooland/toofar-sonoff/config"
	"github.com/cloudkucooland/toofar-sonoff/platform"
)

// ErrStarted is returned when accessories change after the HomeKit transport is up
var ErrStarted = errors.New("homecontrol already started")

// namespace for name based accessory UUIDs
var namespace = uuid.MustParse("7a0c8b1e-6c1f-4f39-9d2b-5f0e3c4a1d90")

type entry struct {
	plugin   string
	platform string
	acc      *accessory.Accessory
}

// Bridge is the HomeKit host: it owns the accessory cache and the hc transport
type Bridge struct {
	config  *config.Config
	storage util.Storage
	cache   *Cache

	mu        sync.Mutex
	loaded    bool
	entries   []entry
	transport hc.Transport
}

// New returns a bridge persisting its accessory cache in storage
func New(c *config.Config, storage util.Storage) *Bridge {
	return &Bridge{
		config:  c,
		storage: storage,
		cache:   NewCache(storage),
	}
}

// Launch restores the cached accessories of one platform into it, then tells it launching is done
func (b *Bridge) Launch(plugin, name string, p platform.Control) error {
	records, err := b.cache.Load()
	if err != nil {
		return err
	}

	b.mu.Lock()
	// records of other platforms stay in entries so the next save keeps them
	if !b.loaded {
		for _, r := range records {
			b.entries = append(b.entries, entry{plugin: r.Plugin, platform: r.Platform, acc: r.Accessory()})
		}
		b.loaded = true
	}
	var restored []*accessory.Accessory
	for _, e := range b.entries {
		if e.plugin == plugin && e.platform == name {
			restored = append(restored, e.acc)
		}
	}
	b.mu.Unlock()

	for _, a := range restored {
		log.Debug.Printf("restoring cached accessory %s", a.DisplayName)
		p.ConfigureAccessory(a)
	}
	p.DidFinishLaunching()
	return nil
}

// RegisterAccessories adds accessories to the bridge and the cache
func (b *Bridge) RegisterAccessories(plugin, name string, accs ...*accessory.Accessory) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.transport != nil {
		return ErrStarted
	}

	for _, a := range accs {
		b.entries = append(b.entries, entry{plugin: plugin, platform: name, acc: a})
	}
	return b.save()
}

// UnregisterAccessories drops accessories from the bridge and the cache
func (b *Bridge) UnregisterAccessories(plugin, name string, accs ...*accessory.Accessory) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.transport != nil {
		return ErrStarted
	}

	drop := make(map[*accessory.Accessory]bool, len(accs))
	for _, a := range accs {
		drop[a] = true
	}
	remaining := b.entries[:0]
	for _, e := range b.entries {
		if !drop[e.acc] {
			remaining = append(remaining, e)
		}
	}
	b.entries = remaining
	return b.save()
}

// GenerateUUID is stable for a given name across restarts
func (b *Bridge) GenerateUUID(name string) string {
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// Accessories lists what is currently registered
func (b *Bridge) Accessories() []*accessory.Accessory {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*accessory.Accessory, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e.acc)
	}
	return out
}

// must hold b.mu
func (b *Bridge) save() error {
	records := make([]Record, 0, len(b.entries))
	for _, e := range b.entries {
		records = append(records, NewRecord(e.plugin, e.platform, e.acc))
	}
	return b.cache.Save(records)
}

// Start is called after all platforms have launched, HC can only be started once all accessories are known
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.transport != nil {
		return ErrStarted
	}

	serial := util.GetSerialNumberForAccessoryName("TooFarRoot", b.storage)
	name := b.config.Name
	if name == "" {
		name = "TooFar"
	}
	root := hcaccessory.NewBridge(hcaccessory.Info{
		Name:             name,
		ID:               1,
		SerialNumber:     serial,
		Manufacturer:     "deviousness",
		Model:            "TooFar Sonoff",
		FirmwareRevision: "0.1.0",
	})
	root.Accessory.OnIdentify(func() {
		log.Info.Printf("bridge root identify called: %s", name)
	})

	values := make([]*hcaccessory.Accessory, 0, len(b.entries))
	for _, e := range b.entries {
		values = append(values, newOutlet(e.acc).Accessory)
	}

	transport, err := hc.NewIPTransport(b.config.HCConfig(b.storagePath()), root.Accessory, values...)
	if err != nil {
		return fmt.Errorf("unable to create HomeKit transport: %w", err)
	}
	b.transport = transport

	go transport.Start()
	if uri, err := transport.XHMURI(); err == nil {
		log.Info.Printf("add this bridge with: %s", uri)
	}
	return nil
}

// Stop shuts the HomeKit transport down and waits for it
func (b *Bridge) Stop() {
	b.mu.Lock()
	t := b.transport
	b.mu.Unlock()
	if t != nil {
		<-t.Stop()
	}
}

func (b *Bridge) storagePath() string {
	if b.config.StoragePath == "" {
		return "db"
	}
	return b.config.StoragePath
}

// accessoryID maps the UUID onto the uint64 HomeKit wants; 1 is the bridge
func accessoryID(u string) uint64 {
	parsed, err := uuid.Parse(u)
	if err != nil {
		parsed = uuid.NewSHA1(namespace, []byte(u))
	}
	id := binary.BigEndian.Uint64(parsed[:8])
	if id <= 1 {
		id += 2
	}
	return id
}
