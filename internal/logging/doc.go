// Package logging provides structured logging for g6ctl built on zap.
//
// Logging is silent by default so normal CLI output stays clean. Set the
// G6CTL_LOG_LEVEL environment variable to "debug", "info", "warn", or
// "error" to enable output on stderr.
//
// The package exposes a small set of level helpers (Info, Debug, Warn,
// Error, Fatal) plus protocol-oriented helpers:
//
//   - LogFrame logs a HID report with hex and ascii dumps
//   - LogRawBytes logs arbitrary byte buffers for protocol debugging
//
// At debug level every frame crossing the transport is dumped, which is the
// primary tool for reverse-engineering new device behavior.
package logging
