// Package loader reads run configuration files.
//
// A configuration file is a JSON object. A document that does not start
// with "{" is read as YAML with the same keys. Every key is optional:
//
//	{
//	  "server": "localhost", "port": 9001, "agent": "wsconform",
//	  "maxtime": 30, "ssl": 0, "debug": false, "nocolor": 1,
//	  "quiet": false, "compact": true, "fulldata": false,
//	  "tests": [1, 2], "skips": [7], "testrange": [10, 20], "skiprange": [12, 14]
//	}
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wsconform/wsconform-go/internal/testharness/caseset"
	"github.com/wsconform/wsconform-go/internal/testharness/runner"
)

// Parse parses a configuration file from bytes.
func Parse(data []byte) (*File, error) {
	var f File
	if err := decode(data, &f); err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, &LoadError{
			Line:    errorLine(data, err),
			Message: "failed to parse config",
			Cause:   err,
		}
	}

	for key, r := range map[string][]int{"testrange": f.TestRange, "skiprange": f.SkipRange} {
		if r != nil && len(r) != 2 {
			return nil, &LoadError{
				Key:     key,
				Message: fmt.Sprintf("expected an array of two integers, got %d", len(r)),
				Cause:   caseset.ErrRangeArity,
			}
		}
	}

	return &f, nil
}

func decode(data []byte, f *File) error {
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(trimmed, f)
	}
	return yaml.Unmarshal(data, f)
}

// errorLine returns the line of a JSON decoding error, 0 if unknown.
func errorLine(data []byte, err error) int {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	offset += int64(len(data) - len(trimmed))
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

// Load loads a configuration file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	f, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return f, nil
}

// Apply merges the file into cfg. Lists are appended. A range applies only
// when cfg has none. Every other key applies unless explicit reports that
// the command line set it.
func (f *File) Apply(cfg *runner.Config, explicit func(key string) bool) {
	if explicit == nil {
		explicit = func(string) bool { return false }
	}

	if f.Server != nil && !explicit("server") {
		cfg.Server = *f.Server
	}
	if f.Port != nil && !explicit("port") {
		cfg.Port = *f.Port
	}
	if f.MaxTime != nil && !explicit("maxtime") {
		cfg.MaxTime = time.Duration(*f.MaxTime) * time.Second
	}
	if f.Agent != nil && !explicit("agent") {
		cfg.Agent = *f.Agent
	}

	for _, b := range []struct {
		key    string
		value  *Bool
		target *bool
	}{
		{"ssl", f.SSL, &cfg.SSL},
		{"debug", f.Debug, &cfg.Debug},
		{"nocolor", f.NoColor, &cfg.NoColor},
		{"quiet", f.Quiet, &cfg.Quiet},
		{"compact", f.Compact, &cfg.Compact},
		{"fulldata", f.FullData, &cfg.FullData},
	} {
		if b.value != nil && !explicit(b.key) {
			*b.target = bool(*b.value)
		}
	}

	cfg.Tests = append(cfg.Tests, f.Tests...)
	cfg.Skips = append(cfg.Skips, f.Skips...)

	if f.TestRange != nil && !cfg.TestRange.IsSet() {
		cfg.TestRange = caseset.Range(f.TestRange)
	}
	if f.SkipRange != nil && !cfg.SkipRange.IsSet() {
		cfg.SkipRange = caseset.Range(f.SkipRange)
	}
}
