package runner

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wsconform/wsconform-go/internal/testharness/caseset"
)

// Defaults for a run.
const (
	DefaultPort    = 9001
	DefaultAgent   = "wsconform"
	DefaultMaxTime = 30 * time.Second
)

// ErrNoServer is returned when no server address was given.
var ErrNoServer = errors.New("no server specified")

// Config configures a run. It is built once from flags and an optional
// config file and is not modified afterwards.
type Config struct {
	// Server is the host name or address of the fuzzing server.
	Server string

	// Port is the server port.
	Port int

	// SSL connects with wss:// and accepts self-signed certificates.
	SSL bool

	// Agent is the name the server files results under.
	Agent string

	// MaxTime bounds each phase connection.
	MaxTime time.Duration

	// Tests and Skips are explicit case numbers.
	Tests []int
	Skips []int

	// TestRange selects cases by range (one or two endpoints).
	TestRange caseset.Range

	// SkipRange excludes cases by range (two endpoints).
	SkipRange caseset.Range

	// All runs every case the server knows.
	All bool

	// ReportsOnly only asks the server to update its reports.
	ReportsOnly bool

	// Quiet, FullData, Compact and NoColor control live console output.
	Quiet    bool
	FullData bool
	Compact  bool
	NoColor  bool

	// OutputFormat is "text", "json", or "junit".
	OutputFormat string

	// Verbose adds per-case details to the text summary.
	Verbose bool

	// Debug enables connection lifecycle logging.
	Debug bool

	// ProtocolLog is the path of a CBOR protocol event log, empty for none.
	ProtocolLog string

	// Output is where results and progress are written.
	Output io.Writer

	// ErrOutput receives warnings and debug logs.
	ErrOutput io.Writer
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Port:         DefaultPort,
		Agent:        DefaultAgent,
		MaxTime:      DefaultMaxTime,
		OutputFormat: "text",
	}
}

// Validate performs every check that does not need the server. It returns
// a ClassifiedError with category ErrCatConfig.
func (c *Config) Validate() error {
	if c.Server == "" {
		return ConfigError(ErrNoServer)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return ConfigError(fmt.Errorf("invalid port %d", c.Port))
	}
	if c.MaxTime <= 0 {
		return ConfigError(fmt.Errorf("maxtime must be positive, got %s", c.MaxTime))
	}
	if c.Agent == "" {
		return ConfigError(errors.New("agent name must not be empty"))
	}
	if err := caseset.ValidateEntries(c.Tests); err != nil {
		return ConfigError(fmt.Errorf("tests: %w", err))
	}
	if err := caseset.ValidateEntries(c.Skips); err != nil {
		return ConfigError(fmt.Errorf("skips: %w", err))
	}
	if err := c.TestRange.Validate(); err != nil {
		return ConfigError(fmt.Errorf("test range: %w", err))
	}
	if len(c.SkipRange) == 1 {
		return ConfigError(fmt.Errorf("skip range: %w: got 1", caseset.ErrRangeArity))
	}
	if err := c.SkipRange.Validate(); err != nil {
		return ConfigError(fmt.Errorf("skip range: %w", err))
	}
	switch c.OutputFormat {
	case "", "text", "json", "junit":
	default:
		return ConfigError(fmt.Errorf("unknown output format %q", c.OutputFormat))
	}
	return nil
}

// scheme returns the URL scheme for the configured transport.
func (c *Config) scheme() string {
	if c.SSL {
		return "wss"
	}
	return "ws"
}
