// Package log provides structured protocol logging for test connections.
//
// Every connection the harness opens gets a connection ID, and the data
// messages, control frames, state changes and errors seen on it are emitted
// as Event values. This is separate from operator output and debug logging
// (slog): protocol capture is a complete machine-readable trace of what
// went over the wire.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For later analysis: write to a binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("run.wslog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(adapter, fileLogger)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events. The wsconform-log tool
// views, summarizes and exports them.
package log
