package sensor

import (
	"math"
	"time"
)

// roundMinutes converts seconds to whole minutes, rounding half away from
// zero.
func roundMinutes(seconds float64) int {
	return int(math.Round(seconds / 60))
}

// TimeUntil returns the whole minutes from now until t, negative when t has
// passed. A zero t yields 0.
func TimeUntil(now, t time.Time) int {
	if t.IsZero() {
		return 0
	}
	return roundMinutes(t.Sub(now).Seconds())
}

// DelayMinutes converts a delay in seconds to whole minutes.
func DelayMinutes(delaySec int) int {
	return roundMinutes(float64(delaySec))
}

// RideDuration is the scheduled ride length between departure and arrival
// plus the departure delay, in whole minutes.
func RideDuration(departure, arrival time.Time, delaySec int) int {
	return roundMinutes(arrival.Sub(departure).Seconds()) + DelayMinutes(delaySec)
}
