package sonoff

import (
	"context"
	"errors"
	"fmt"

	"github.com/brutella/hc/log"

	"github.com/cloudkucooland/toofar-sonoff/accessory"
)

// Messages are the ones HomeKit users and the control channel have always seen.
var (
	ErrGetState           = errors.New("Could not get state")            //nolint:stylecheck
	ErrRetrievePowerState = errors.New("Could not retrieve power state") //nolint:stylecheck
	ErrSetState           = errors.New("Could not set state")            //nolint:stylecheck
)

// bind (re)installs the On handlers. The context is captured here, so a rebind
// is the only way handlers see new URLs.
func (p *Platform) bind(a *accessory.Accessory) {
	name := a.DisplayName
	c := a.Context
	key := PowerKey(c.Relay)

	a.Outlet().On.OnGet(func(done func(bool, error)) {
		res := p.client.SendRequest(context.Background(), c.StatusURL)
		if res.Outcome == TransportFailure {
			done(false, cause(ErrGetState, res.Err))
			return
		}

		state, ok := res.Lookup(key)
		if !ok {
			log.Info.Printf("[%s] could not retrieve power state (no %s in response), check the device and its relay setting: a Dual needs relay 1 or 2, a single relay module needs none", name, key)
			done(false, ErrRetrievePowerState)
			return
		}

		log.Debug.Printf("[%s] %s: %s", name, key, state)
		done(state == "ON", nil)
	}).OnSet(func(on bool, done func(error)) {
		res := p.client.SendRequest(context.Background(), PowerURL(c.PowerCmdURL, on))
		if res.Outcome == TransportFailure {
			done(cause(ErrSetState, res.Err))
			return
		}
		log.Info.Printf("[%s] set to %t", name, on)
		done(nil)
	})
}

func cause(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
