package loader

import (
	"bytes"
	"strconv"

	"gopkg.in/yaml.v3"
)

// File is a parsed configuration file. Pointer fields are nil when the key
// is absent so callers can tell "unset" from a zero value.
type File struct {
	Server   *string `yaml:"server" json:"server"`
	Port     *int    `yaml:"port" json:"port"`
	MaxTime  *int    `yaml:"maxtime" json:"maxtime"`
	Agent    *string `yaml:"agent" json:"agent"`
	SSL      *Bool   `yaml:"ssl" json:"ssl"`
	Debug    *Bool   `yaml:"debug" json:"debug"`
	NoColor  *Bool   `yaml:"nocolor" json:"nocolor"`
	Quiet    *Bool   `yaml:"quiet" json:"quiet"`
	Compact  *Bool   `yaml:"compact" json:"compact"`
	FullData *Bool   `yaml:"fulldata" json:"fulldata"`

	// Tests and Skips are appended to the lists given on the command line.
	Tests []int `yaml:"tests" json:"tests"`
	Skips []int `yaml:"skips" json:"skips"`

	// TestRange and SkipRange hold exactly two endpoints when present.
	TestRange []int `yaml:"testrange" json:"testrange"`
	SkipRange []int `yaml:"skiprange" json:"skiprange"`
}

// Bool is a boolean that also accepts 0 and 1.
type Bool bool

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Bool) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		switch node.Value {
		case "true", "True", "TRUE", "1":
			*b = true
			return nil
		case "false", "False", "FALSE", "0":
			*b = false
			return nil
		}
	}
	return &LoadError{
		Line:    node.Line,
		Message: "expected true, false, 0 or 1, got " + strconv.Quote(node.Value),
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*b = true
		return nil
	case "false", "0":
		*b = false
		return nil
	}
	return &LoadError{
		Message: "expected true, false, 0 or 1, got " + string(data),
	}
}

// LoadError provides details about a configuration loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Line is the line number where the error occurred (0 if unknown).
	Line int

	// Key is the configuration key involved, if known.
	Key string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg = e.Key + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Line > 0 {
		if e.File == "" {
			return "line " + strconv.Itoa(e.Line) + ": " + msg
		}
		return e.File + ":" + strconv.Itoa(e.Line) + ": " + msg
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
