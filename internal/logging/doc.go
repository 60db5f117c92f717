// Package logging provides structured logging for pigwire built on zap.
//
// Logging is silent by default so the CLI's stdout stays parseable; set
// PIGWIRE_LOG_LEVEL=debug (or info/warn/error) to enable output on stderr.
// Debug level includes hex dumps of every command frame and every decoded
// notification record, which is the primary tool for diagnosing protocol
// mismatches against unexpected daemon versions.
package logging
