// Package publish mirrors rendered sensor states into Redis and announces
// changes on pub/sub channels so downstream consumers can follow departures
// without polling the HTTP API.
package publish
