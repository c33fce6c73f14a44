package homecontrol

import (
	"sync"

	hcaccessory "github.com/brutella/hc/accessory"
	"github.com/brutella/hc/log"
	"github.com/brutella/hc/service"

	"github.com/cloudkucooland/toofar-sonoff/accessory"
)

// hcOutlet is the HomeKit side of one Sonoff accessory
type hcOutlet struct {
	*hcaccessory.Accessory
	Outlet *service.Outlet

	mu   sync.Mutex
	last bool
}

// newOutlet builds the hc accessory and routes the On characteristic through the
// accessory's power handlers. hc has no way to report an error to the controller,
// so a failed read answers the last known state and a failed write reverts.
func newOutlet(a *accessory.Accessory) *hcOutlet {
	o := &hcOutlet{}
	o.Accessory = hcaccessory.New(a.HCInfo(accessoryID(a.UUID)), hcaccessory.TypeOutlet)
	o.Outlet = service.NewOutlet()
	o.Outlet.OutletInUse.SetValue(true)
	o.AddService(o.Outlet.Service)

	name := a.DisplayName
	o.Accessory.OnIdentify(func() {
		log.Info.Printf("identify called for [%s]", name)
	})

	// hc feeds the returned value through the remote update callbacks, so the
	// characteristic must already hold it or a read turns into a write
	o.Outlet.On.OnValueRemoteGet(func() bool {
		on, err := a.Outlet().On.GetSync()
		if err != nil {
			log.Info.Printf("[%s] %s", name, err.Error())
			return o.lastState()
		}
		o.setLast(on)
		o.Outlet.On.SetValue(on)
		return on
	})

	o.Outlet.On.OnValueRemoteUpdate(func(on bool) {
		log.Info.Printf("setting [%s] to [%t] from HC handler", name, on)
		if err := a.Outlet().On.SetSync(on); err != nil {
			log.Info.Printf("[%s] %s", name, err.Error())
			o.Outlet.On.SetValue(o.lastState())
			return
		}
		o.setLast(on)
	})

	return o
}

func (o *hcOutlet) lastState() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *hcOutlet) setLast(on bool) {
	o.mu.Lock()
	o.last = on
	o.mu.Unlock()
}
