package homecontrol

import (
	"encoding/json"
	"fmt"

	"github.com/brutella/hc/log"
	"github.com/brutella/hc/util"

	"github.com/cloudkucooland/toofar-sonoff/accessory"
)

const cacheKey = "cachedAccessories"

// Record is what survives a restart for one accessory
type Record struct {
	Plugin      string `json:"plugin"`
	Platform    string `json:"platform"`
	DisplayName string `json:"displayName"`
	UUID        string `json:"uuid"`
	Index       int    `json:"index"`
}

// NewRecord snapshots an accessory for the cache
func NewRecord(plugin, platform string, a *accessory.Accessory) Record {
	return Record{
		Plugin:      plugin,
		Platform:    platform,
		DisplayName: a.DisplayName,
		UUID:        a.UUID,
		Index:       a.Context.Index,
	}
}

// Accessory rebuilds the bare accessory; the platform fills in the rest when it configures it
func (r Record) Accessory() *accessory.Accessory {
	a := accessory.New(r.DisplayName, r.UUID)
	a.Context.Index = r.Index
	a.AddOutlet(r.DisplayName)
	return a
}

// Cache is the persisted accessory list
type Cache struct {
	storage util.Storage
}

// NewCache wraps an hc storage
func NewCache(storage util.Storage) *Cache {
	return &Cache{storage: storage}
}

// Load returns the cached records; a missing cache is an empty one
func (c *Cache) Load() ([]Record, error) {
	raw, err := c.storage.Get(cacheKey)
	if err != nil || len(raw) == 0 {
		log.Debug.Printf("no accessory cache: %v", err)
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("unable to parse accessory cache: %w", err)
	}
	return records, nil
}

// Save replaces the cached records
func (c *Cache) Save(records []Record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	// FileStorage.Set does not truncate, a shorter list would leave the old tail behind
	if err := c.storage.Delete(cacheKey); err != nil {
		log.Debug.Printf("no accessory cache to replace: %v", err)
	}
	if err := c.storage.Set(cacheKey, raw); err != nil {
		return fmt.Errorf("unable to write accessory cache: %w", err)
	}
	return nil
}
