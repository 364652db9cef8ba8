package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wsconform/wsconform-go/internal/testharness/caseset"
)

const (
	lineWidth    = 80
	runListWidth = 78
)

// ConsoleOptions selects how much live output the console prints.
type ConsoleOptions struct {
	// Quiet suppresses per-message output during a case run.
	Quiet bool

	// FullData prints text message contents instead of a size summary.
	FullData bool

	// Compact prints one line per case.
	Compact bool

	// NoColor disables ANSI colors.
	NoColor bool
}

// Settings is the configuration summary printed before a run.
type Settings struct {
	Agent     string
	SSL       bool
	Host      string
	Port      int
	All       bool
	TestRange caseset.Range
	SkipRange caseset.Range
}

type consoleStyles struct {
	headline lipgloss.Style
	compact  lipgloss.Style
	bright   lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	warning  lipgloss.Style
}

// Console prints live progress of a run for an operator.
type Console struct {
	out    io.Writer
	errOut io.Writer
	opts   ConsoleOptions
	styles consoleStyles
}

// NewConsole creates a console writing progress to out and warnings to errOut.
func NewConsole(out, errOut io.Writer, opts ConsoleOptions) *Console {
	c := &Console{out: out, errOut: errOut, opts: opts}

	if opts.NoColor {
		plain := lipgloss.NewStyle()
		c.styles = consoleStyles{plain, plain, plain, plain, plain, plain}
		return c
	}

	r := lipgloss.NewRenderer(out)
	c.styles = consoleStyles{
		headline: r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		compact:  r.NewStyle().Foreground(lipgloss.Color("5")),
		bright:   r.NewStyle().Bold(true),
		success:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		failure:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		warning:  r.NewStyle().Foreground(lipgloss.Color("3")),
	}
	return c
}

// Line draws a horizontal rule.
func (c *Console) Line() {
	fmt.Fprintln(c.out, strings.Repeat("-", lineWidth))
}

// Settings prints the run configuration between two rules.
func (c *Console) Settings(s Settings) {
	c.Line()
	fmt.Fprintf(c.out, "Agent: %s\n", s.Agent)
	ssl := "OFF"
	if s.SSL {
		ssl = "ON"
	}
	fmt.Fprintf(c.out, "SSL: %s\n", ssl)
	fmt.Fprintf(c.out, "Server: %s:%d\n", s.Host, s.Port)
	if s.All {
		fmt.Fprintf(c.out, "Test range: All\n")
	} else {
		fmt.Fprintf(c.out, "Test range: %s\n", s.TestRange)
	}
	fmt.Fprintf(c.out, "Skip range: %s\n", s.SkipRange)
	c.Line()
	fmt.Fprintln(c.out)
}

// RunList prints the cases that will run, leaving out skipped ones.
func (c *Console) RunList(list []int, skip caseset.Set) {
	c.Line()
	fmt.Fprintln(c.out, "Running test cases:")
	fmt.Fprintln(c.out, caseset.Join(list, runListWidth, skip.Contains))
	c.Line()
}

// CaseInfo prints the case headline and, outside compact mode, the
// wrapped description.
func (c *Console) CaseInfo(caseNum int, id, description string) {
	headline := fmt.Sprintf("[%3d] - %6s", caseNum, id)
	if c.opts.Compact {
		fmt.Fprint(c.out, c.styles.compact.Render(fmt.Sprintf("%10s: ", headline)))
		return
	}
	fmt.Fprintln(c.out, c.styles.headline.Render(headline))
	fmt.Fprintln(c.out, Wrap(description, lineWidth))
}

// Connected reports an established run connection.
func (c *Console) Connected() {
	if !c.opts.Compact {
		fmt.Fprintln(c.out, "Connected!")
	}
}

// Message reports one echoed run-phase message.
func (c *Console) Message(data []byte, binary bool) {
	if c.opts.Quiet {
		return
	}
	if c.opts.FullData && !binary {
		fmt.Fprintf(c.out, "%s (%d bytes) ", data, len(data))
	} else {
		kind := "text"
		if binary {
			kind = "binary"
		}
		width := 0
		if c.opts.Compact {
			width = 10
		}
		fmt.Fprintf(c.out, "%*d bytes (%s)", width, len(data), kind)
	}
	if !c.opts.Compact {
		fmt.Fprintln(c.out)
	}
}

// Ping reports a ping that was answered.
func (c *Console) Ping(size int) {
	fmt.Fprintf(c.out, "Ping! (%d byte payload)\n", size)
}

// Closed reports the close status of a run connection.
func (c *Console) Closed(code int, reason string) {
	if !c.opts.Compact {
		fmt.Fprintf(c.out, "Close status: %d. %s\n", code, reason)
	}
}

// Verdict reports the server's verdict for a case.
func (c *Console) Verdict(pass bool) {
	word, style := "SUCCESS", c.styles.success
	if !pass {
		word, style = "FAILURE", c.styles.failure
	}
	if c.opts.Compact {
		fmt.Fprint(c.out, c.styles.bright.Render("[")+style.Render(word)+c.styles.bright.Render("] "))
		return
	}
	fmt.Fprintln(c.out, style.Render("["+word+"]"))
}

// CaseDone ends the output of a case.
func (c *Console) CaseDone() {
	fmt.Fprintln(c.out)
}

// Report prints a message received while updating reports.
func (c *Console) Report(msg string) {
	fmt.Fprintf(c.out, "Got report! %s\n", msg)
}

// UpdatingReports announces the report update.
func (c *Console) UpdatingReports() {
	fmt.Fprintln(c.out, "Updating reports!")
}

// Warnf prints a non-fatal problem.
func (c *Console) Warnf(format string, args ...any) {
	fmt.Fprintln(c.errOut, c.styles.warning.Render(fmt.Sprintf(format, args...)))
}

// Final prints the closing banner. err is an orchestration error that
// stopped the run early.
func (c *Console) Final(failed bool, err error) {
	c.Line()
	if err != nil {
		fmt.Fprintln(c.errOut, c.styles.failure.Render("Failure!")+" "+err.Error())
	}
	if failed {
		fmt.Fprintln(c.out, c.styles.failure.Render("[FAILURE]")+" One or more tests failed!")
	} else {
		fmt.Fprintln(c.out, c.styles.success.Render("[SUCCESS]")+" All tests ran OK!")
	}
	c.Line()
}

// Wrap breaks s into lines of at most width display columns at spaces.
// Existing line breaks are kept. A word longer than width is kept whole
// on its own line.
func Wrap(s string, width int) string {
	var b strings.Builder
	for n, line := range strings.Split(s, "\n") {
		if n > 0 {
			b.WriteByte('\n')
		}
		lineLen := 0
		for i, w := range strings.Split(line, " ") {
			wl := lipgloss.Width(w)
			if i > 0 {
				if lineLen+1+wl > width {
					b.WriteByte('\n')
					lineLen = 0
				} else {
					b.WriteByte(' ')
					lineLen++
				}
			}
			b.WriteString(w)
			lineLen += wl
		}
	}
	return b.String()
}
