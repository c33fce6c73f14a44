package accessory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnboundPower(t *testing.T) {
	p := NewOutlet("x").On
	assert.False(t, p.Bound())

	_, err := p.GetSync()
	assert.Equal(t, ErrNoHandler, err)
	assert.Equal(t, ErrNoHandler, p.SetSync(true))
}

func TestPowerHandlersReplace(t *testing.T) {
	p := NewOutlet("x").On
	p.OnGet(func(done func(bool, error)) { done(false, errors.New("first")) })
	p.OnGet(func(done func(bool, error)) { done(true, nil) })

	var set []bool
	p.OnSet(func(on bool, done func(error)) {
		set = append(set, on)
		done(nil)
	})
	require.True(t, p.Bound())

	on, err := p.GetSync()
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, p.SetSync(true))
	require.NoError(t, p.SetSync(false))
	assert.Equal(t, []bool{true, false}, set)
}

func TestAsyncCompletion(t *testing.T) {
	p := NewOutlet("x").On
	p.OnGet(func(done func(bool, error)) {
		go done(true, nil)
	})
	on, err := p.GetSync()
	require.NoError(t, err)
	assert.True(t, on)
}

func TestAccessoryOutlet(t *testing.T) {
	a := New("Lamp", "uuid")
	o := a.Outlet()
	assert.Equal(t, "Lamp", o.Name)
	assert.Same(t, o, a.Outlet())

	o2 := a.AddOutlet("Other")
	assert.Same(t, o2, a.Outlet())
}

func TestHCInfo(t *testing.T) {
	a := New("Lamp", "uuid")
	a.SetInformation(Information{Manufacturer: "Sonoff", Model: "Basic", SerialNumber: "lamp"})

	info := a.HCInfo(42)
	assert.Equal(t, "Lamp", info.Name)
	assert.Equal(t, "Sonoff", info.Manufacturer)
	assert.Equal(t, "Basic", info.Model)
	assert.Equal(t, "lamp", info.SerialNumber)
	assert.Equal(t, uint64(42), info.ID)
}
