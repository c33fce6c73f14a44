package homecontrol

import (
	"context"
	"testing"

	"github.com/brutella/hc/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkucooland/toofar-sonoff/accessory"
	"github.com/cloudkucooland/toofar-sonoff/config"
	"github.com/cloudkucooland/toofar-sonoff/sonoff"
)

type offline struct{}

func (offline) SendRequest(ctx context.Context, url string) sonoff.Result {
	return sonoff.Result{Outcome: sonoff.TransportFailure}
}

type controlMock struct {
	configured []string
	launched   bool
}

func (c *controlMock) ConfigureAccessory(a *accessory.Accessory) {
	c.configured = append(c.configured, a.DisplayName)
}
func (c *controlMock) DidFinishLaunching()                              { c.launched = true }
func (c *controlMock) Accessories() []*accessory.Accessory              { return nil }
func (c *controlMock) GetAccessory(string) (*accessory.Accessory, bool) { return nil, false }

func storage(t *testing.T) util.Storage {
	t.Helper()
	s, err := util.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func launch(t *testing.T, s util.Storage, c *config.Config) (*Bridge, *sonoff.Platform) {
	t.Helper()
	b := New(c, s)
	p := sonoff.NewWithClient(c, b, offline{})
	require.NoError(t, b.Launch(sonoff.PluginName, sonoff.PlatformName, p))
	return b, p
}

func TestLaunchEmptyCache(t *testing.T) {
	b := New(&config.Config{}, storage(t))
	c := &controlMock{}
	require.NoError(t, b.Launch("plugin", "Sonoff", c))

	assert.Empty(t, c.configured)
	assert.True(t, c.launched)
}

func TestLaunchRestoresOnlyOwnPlatform(t *testing.T) {
	s := storage(t)
	require.NoError(t, NewCache(s).Save([]Record{
		{Plugin: "toofar-sonoff", Platform: "Sonoff", DisplayName: "Lamp", UUID: "u1", Index: 0},
		{Plugin: "other", Platform: "Other", DisplayName: "Fan", UUID: "u2", Index: 0},
	}))

	b := New(&config.Config{}, s)
	c := &controlMock{}
	require.NoError(t, b.Launch("toofar-sonoff", "Sonoff", c))
	assert.Equal(t, []string{"Lamp"}, c.configured)
	assert.Len(t, b.Accessories(), 2)
}

func TestCacheSurvivesRestart(t *testing.T) {
	s := storage(t)
	conf := &config.Config{Devices: []config.DeviceConfig{{Name: "Lamp"}, {Name: "Fan"}}}

	b, _ := launch(t, s, conf)
	require.Len(t, b.Accessories(), 2)

	records, err := NewCache(s).Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{Plugin: "toofar-sonoff", Platform: "Sonoff", DisplayName: "Lamp", UUID: b.GenerateUUID("Lamp"), Index: 0}, records[0])
	assert.Equal(t, "Fan", records[1].DisplayName)
	assert.Equal(t, 1, records[1].Index)

	// same config: everything comes from the cache, nothing new
	b2, p2 := launch(t, s, conf)
	assert.Len(t, b2.Accessories(), 2)
	assert.Len(t, p2.Accessories(), 2)
	records2, err := NewCache(s).Load()
	require.NoError(t, err)
	assert.Equal(t, records, records2)
}

func TestRenameAndRemovalAcrossRestart(t *testing.T) {
	s := storage(t)
	launch(t, s, &config.Config{Devices: []config.DeviceConfig{{Name: "Lamp"}, {Name: "Fan"}, {Name: "Heater"}}})

	b, p := launch(t, s, &config.Config{Devices: []config.DeviceConfig{{Name: "Lamp"}, {Name: "Ceiling Fan"}}})
	got := []string{}
	for _, a := range p.Accessories() {
		got = append(got, a.DisplayName)
	}
	assert.ElementsMatch(t, []string{"Lamp", "Ceiling Fan"}, got)
	assert.Len(t, b.Accessories(), 2)

	records, err := NewCache(s).Load()
	require.NoError(t, err)
	byName := map[string]int{}
	for _, r := range records {
		byName[r.DisplayName] = r.Index
	}
	assert.Equal(t, map[string]int{"Lamp": 0, "Ceiling Fan": 1}, byName)
}

func TestGenerateUUIDStable(t *testing.T) {
	b := New(&config.Config{}, storage(t))
	assert.Equal(t, b.GenerateUUID("Lamp"), b.GenerateUUID("Lamp"))
	assert.NotEqual(t, b.GenerateUUID("Lamp"), b.GenerateUUID("Fan"))
	assert.Len(t, b.GenerateUUID("Lamp"), 36)
}

func TestAccessoryID(t *testing.T) {
	b := New(&config.Config{}, storage(t))
	u := b.GenerateUUID("Lamp")
	assert.Equal(t, accessoryID(u), accessoryID(u))
	assert.NotEqual(t, accessoryID(u), accessoryID(b.GenerateUUID("Fan")))
	assert.Greater(t, accessoryID("00000000-0000-0000-0000-000000000000"), uint64(1))
	assert.Greater(t, accessoryID("not a uuid"), uint64(0))
}

func TestCacheCorrupt(t *testing.T) {
	s := storage(t)
	require.NoError(t, s.Set(cacheKey, []byte("{")))
	_, err := NewCache(s).Load()
	assert.Error(t, err)

	b := New(&config.Config{}, s)
	assert.Error(t, b.Launch("p", "Sonoff", &controlMock{}))
}

func TestRecordAccessory(t *testing.T) {
	a := Record{DisplayName: "Lamp", UUID: "u", Index: 3}.Accessory()
	assert.Equal(t, "Lamp", a.DisplayName)
	assert.Equal(t, "u", a.UUID)
	assert.Equal(t, 3, a.Context.Index)
	assert.NotNil(t, a.Outlet().On)
}

func TestCacheSaveShrinks(t *testing.T) {
	s := storage(t)
	c := NewCache(s)
	require.NoError(t, c.Save([]Record{
		{Plugin: "toofar-sonoff", Platform: "Sonoff", DisplayName: "Lamp", UUID: "u1", Index: 0},
		{Plugin: "toofar-sonoff", Platform: "Sonoff", DisplayName: "Ceiling Fan", UUID: "u2", Index: 1},
	}))
	require.NoError(t, c.Save([]Record{
		{Plugin: "toofar-sonoff", Platform: "Sonoff", DisplayName: "Lamp", UUID: "u1", Index: 0},
	}))

	records, err := c.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Lamp", records[0].DisplayName)
}

func TestRemovalSurvivesThirdStart(t *testing.T) {
	s := storage(t)
	launch(t, s, &config.Config{Devices: []config.DeviceConfig{{Name: "Lamp"}, {Name: "Fan"}}})
	launch(t, s, &config.Config{Devices: []config.DeviceConfig{{Name: "Lamp"}}})

	b := New(&config.Config{}, s)
	p := sonoff.NewWithClient(&config.Config{Devices: []config.DeviceConfig{{Name: "Lamp"}}}, b, offline{})
	require.NoError(t, b.Launch(sonoff.PluginName, sonoff.PlatformName, p))
	assert.Len(t, p.Accessories(), 1)
}

func TestSaveKeepsOtherPlatforms(t *testing.T) {
	s := storage(t)
	require.NoError(t, NewCache(s).Save([]Record{
		{Plugin: "other", Platform: "Other", DisplayName: "Fan", UUID: "u2", Index: 0},
	}))

	launch(t, s, &config.Config{Devices: []config.DeviceConfig{{Name: "Lamp"}}})

	records, err := NewCache(s).Load()
	require.NoError(t, err)
	got := []string{}
	for _, r := range records {
		got = append(got, r.Plugin+"/"+r.DisplayName)
	}
	assert.ElementsMatch(t, []string{"other/Fan", "toofar-sonoff/Lamp"}, got)
}
