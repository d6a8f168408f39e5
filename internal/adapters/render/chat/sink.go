// Package chat renders a streamed chat response to the terminal.
package chat

import (
	"fmt"
	"io"

	"github.com/bnema/lingua-cli/internal/ports"
)

// Sink writes each fragment to the underlying writer as it arrives. There
// is no internal buffering: fragments reach the terminal in the order the
// backend produced them, and output already written stays on screen even if
// the stream later fails.
type Sink struct {
	w       io.Writer
	started bool
}

var _ ports.Sink = (*Sink)(nil)

func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

func (s *Sink) Fragment(text string) error {
	s.started = true
	_, err := io.WriteString(s.w, text)
	return err
}

// Started reports whether any fragment has been written yet.
func (s *Sink) Started() bool {
	return s.started
}

// Header returns the styled line printed above a response.
func Header(model string) string {
	st := newStyles()
	return st.model.Render(model) + " " + st.divider.Render("▸")
}

// ErrorLine returns a styled error message printed in place of further
// content when a stream terminates early.
func ErrorLine(err error) string {
	st := newStyles()
	return st.errText.Render(fmt.Sprintf("error: %s", err))
}

// MetaLine returns a dimmed informational line.
func MetaLine(text string) string {
	return newStyles().meta.Render(text)
}
