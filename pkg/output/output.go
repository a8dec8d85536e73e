// Package output provides the reporting sink used by the generation
// pipeline. Callers inject a Sink at construction time; there is no
// process-wide logger.
package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Sink receives progress and diagnostic messages from the generator.
type Sink interface {
	// Success reports a completed operation.
	Success(msg string)
	// Info reports a status update, typically one line per written file.
	Info(msg string)
	// Error reports a failure that needs user attention.
	Error(msg string)
	// Step reports an indented sub-item or actionable next step.
	Step(msg string)
	// Verbose reports debugging detail; implementations may drop it.
	Verbose(msg string)
}

// Styled writes lipgloss-styled messages to a writer.
type Styled struct {
	w       io.Writer
	verbose bool
}

// NewStyled builds a styled sink. When verbose is false, Verbose messages
// are dropped.
func NewStyled(w io.Writer, verbose bool) *Styled {
	return &Styled{w: w, verbose: verbose}
}

func (s *Styled) Success(msg string) {
	fmt.Fprintln(s.w, successStyle.Render("✓ "+msg))
}

func (s *Styled) Error(msg string) {
	fmt.Fprintln(s.w, errorStyle.Render("✗ "+msg))
}

func (s *Styled) Info(msg string) {
	fmt.Fprintln(s.w, infoStyle.Render(msg))
}

func (s *Styled) Step(msg string) {
	fmt.Fprintln(s.w, stepStyle.Render("   "+msg))
}

func (s *Styled) Verbose(msg string) {
	if s.verbose {
		fmt.Fprintln(s.w, stepStyle.Render("· "+msg))
	}
}

type nopSink struct{}

func (nopSink) Success(string) {}
func (nopSink) Info(string)    {}
func (nopSink) Error(string)   {}
func (nopSink) Step(string)    {}
func (nopSink) Verbose(string) {}

// Nop returns a sink that discards everything.
func Nop() Sink { return nopSink{} }

// Message is a single recorded sink call.
type Message struct {
	Level string
	Text  string
}

// Recorder captures messages for inspection in tests.
type Recorder struct {
	Messages []Message
}

func (r *Recorder) record(level, text string) {
	r.Messages = append(r.Messages, Message{Level: level, Text: text})
}

func (r *Recorder) Success(msg string) { r.record("success", msg) }
func (r *Recorder) Info(msg string)    { r.record("info", msg) }
func (r *Recorder) Error(msg string)   { r.record("error", msg) }
func (r *Recorder) Step(msg string)    { r.record("step", msg) }
func (r *Recorder) Verbose(msg string) { r.record("verbose", msg) }

// Texts returns the recorded message bodies for the given level, or every
// body when level is empty.
func (r *Recorder) Texts(level string) []string {
	var out []string
	for _, m := range r.Messages {
		if level == "" || m.Level == level {
			out = append(out, m.Text)
		}
	}
	return out
}
