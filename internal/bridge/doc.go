// Package bridge forwards pin level changes to an MQTT broker.
//
// Each watched pin publishes to <prefix>/gpio/<n>/level as a JSON payload
// carrying the level, the daemon tick and a wall-clock timestamp. The
// bridge maintains <prefix>/status as a retained online/offline
// availability topic backed by an MQTT last-will, so subscribers can tell
// a dead bridge from a quiet pin.
package bridge
