package reporter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wsconform/wsconform-go/internal/testharness/caseset"
)

func newTestConsole(opts ConsoleOptions) (*Console, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	opts.NoColor = true
	return NewConsole(&out, &errOut, opts), &out, &errOut
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"short", "hello world", 80, "hello world"},
		{"exact", "aaaa bbbb", 9, "aaaa bbbb"},
		{"break", "aaaa bbbb cccc", 9, "aaaa bbbb\ncccc"},
		{"long word", "a bbbbbbbbbbbb c", 5, "a\nbbbbbbbbbbbb\nc"},
		{"empty", "", 80, ""},
		{"multibyte counts columns", "héllo wörld", 11, "héllo wörld"},
		{"wide runes", "日本 語", 4, "日本\n語"},
		{"existing newline resets line", "aaaa\nbbbb cccc", 9, "aaaa\nbbbb cccc"},
		{"wraps after newline", "aa\nbbbb cccc dd", 9, "aa\nbbbb cccc\ndd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.in, tt.width))
		})
	}
}

func TestWrapLinesFitWidth(t *testing.T) {
	desc := "Send fragmented text message, 3 fragments, first and last of length 0, middle non-empty, with ping between fragments and a close at the end of the exchange."
	for _, line := range strings.Split(Wrap(desc, 80), "\n") {
		assert.LessOrEqual(t, len(line), 80, line)
	}
	assert.Equal(t, desc, strings.ReplaceAll(Wrap(desc, 80), "\n", " "))
}

func TestConsoleSettings(t *testing.T) {
	c, out, _ := newTestConsole(ConsoleOptions{})
	c.Settings(Settings{
		Agent:     "wsconform",
		SSL:       true,
		Host:      "localhost",
		Port:      9001,
		TestRange: caseset.Range{10},
	})

	rule := strings.Repeat("-", 80)
	want := rule + "\n" +
		"Agent: wsconform\n" +
		"SSL: ON\n" +
		"Server: localhost:9001\n" +
		"Test range: 10 to MAX\n" +
		"Skip range: -\n" +
		rule + "\n\n"
	assert.Equal(t, want, out.String())
}

func TestConsoleSettingsAll(t *testing.T) {
	c, out, _ := newTestConsole(ConsoleOptions{})
	c.Settings(Settings{Agent: "a", Host: "h", Port: 1, All: true, SkipRange: caseset.Range{2, 4}})

	assert.Contains(t, out.String(), "SSL: OFF\n")
	assert.Contains(t, out.String(), "Test range: All\n")
	assert.Contains(t, out.String(), "Skip range: 2 to 4\n")
}

func TestConsoleRunListLeavesOutSkipped(t *testing.T) {
	c, out, _ := newTestConsole(ConsoleOptions{})
	c.RunList([]int{1, 2, 3, 4}, caseset.Set{2})

	assert.Contains(t, out.String(), "Running test cases:\n1, 3, 4\n")
}

func TestConsoleCaseInfo(t *testing.T) {
	c, out, _ := newTestConsole(ConsoleOptions{})
	c.CaseInfo(5, "1.1.5", "Send text message.")
	assert.Equal(t, "[  5] -  1.1.5\nSend text message.\n", out.String())

	c, out, _ = newTestConsole(ConsoleOptions{Compact: true})
	c.CaseInfo(5, "1.1.5", "Send text message.")
	assert.Equal(t, "[  5] -  1.1.5: ", out.String())
}

func TestConsoleMessage(t *testing.T) {
	tests := []struct {
		name   string
		opts   ConsoleOptions
		data   string
		binary bool
		want   string
	}{
		{"summary text", ConsoleOptions{}, "hello", false, "5 bytes (text)\n"},
		{"summary binary", ConsoleOptions{}, "hello", true, "5 bytes (binary)\n"},
		{"full data", ConsoleOptions{FullData: true}, "hello", false, "hello (5 bytes) \n"},
		{"full data binary", ConsoleOptions{FullData: true}, "hi", true, "2 bytes (binary)\n"},
		{"compact", ConsoleOptions{Compact: true}, "hello", false, "         5 bytes (text)"},
		{"quiet", ConsoleOptions{Quiet: true}, "hello", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out, _ := newTestConsole(tt.opts)
			c.Message([]byte(tt.data), tt.binary)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestConsoleConnectionEvents(t *testing.T) {
	c, out, _ := newTestConsole(ConsoleOptions{})
	c.Connected()
	c.Ping(3)
	c.Closed(1000, "")
	assert.Equal(t, "Connected!\nPing! (3 byte payload)\nClose status: 1000. \n", out.String())

	c, out, _ = newTestConsole(ConsoleOptions{Compact: true})
	c.Connected()
	c.Closed(1000, "")
	assert.Empty(t, out.String())
}

func TestConsoleVerdict(t *testing.T) {
	c, out, _ := newTestConsole(ConsoleOptions{})
	c.Verdict(true)
	c.Verdict(false)
	assert.Equal(t, "[SUCCESS]\n[FAILURE]\n", out.String())

	c, out, _ = newTestConsole(ConsoleOptions{Compact: true})
	c.Verdict(true)
	assert.Equal(t, "[SUCCESS] ", out.String())
}

func TestConsoleFinal(t *testing.T) {
	c, out, errOut := newTestConsole(ConsoleOptions{})
	c.Final(false, nil)
	assert.Contains(t, out.String(), "All tests ran OK!")
	assert.Empty(t, errOut.String())

	c, out, errOut = newTestConsole(ConsoleOptions{})
	c.Final(true, errors.New("case count unavailable"))
	assert.Contains(t, out.String(), "One or more tests failed!")
	assert.Contains(t, errOut.String(), "Failure! case count unavailable")
}

func TestConsoleWarnf(t *testing.T) {
	c, out, errOut := newTestConsole(ConsoleOptions{})
	c.Warnf("Failed to parse test info: %s", "missing id")
	assert.Empty(t, out.String())
	assert.Equal(t, "Failed to parse test info: missing id\n", errOut.String())
}
