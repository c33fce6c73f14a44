package sonoff

import "fmt"

// BaseURL is the Tasmota command endpoint, the command gets appended.
// The password goes in unescaped, the firmware expects it verbatim.
func BaseURL(hostname, password string) string {
	return fmt.Sprintf("http://%s/cm?user=admin&password=%s&cmnd=", hostname, password)
}

// PowerCmdURL switches relay; append "%20ON" or "%20OFF"
func PowerCmdURL(base, relay string) string {
	return base + "Power" + relay
}

// StatusURL queries the device state
func StatusURL(base string) string {
	return base + "state"
}

// PowerURL is the full command for a requested state
func PowerURL(powerCmd string, on bool) string {
	if on {
		return powerCmd + "%20ON"
	}
	return powerCmd + "%20OFF"
}

// PowerKey is the status response key holding the relay state
func PowerKey(relay string) string {
	return "POWER" + relay
}
