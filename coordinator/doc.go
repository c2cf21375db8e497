// Package coordinator polls the iRail API on a fixed interval and caches
// the last successful payload per configured subentry.
//
// One coordinator exists per subentry (connection or liveboard). A single
// Loop goroutine refreshes them all sequentially on each tick, constrained
// by a request budget per time window so a misconfigured instance cannot
// hammer the public API. A failed refresh marks the coordinator unhealthy
// but never clears cached data; sensors keep rendering the stale payload
// as unavailable until the next successful poll.
package coordinator
