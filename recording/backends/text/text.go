// Package text provides a recording backend that writes one line per
// command.
//
// Import it for its side effect:
//
//	import _ "github.com/prajeeshag/windgl/recording/backends/text"
package text

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/prajeeshag/windgl/recording"
)

func init() {
	recording.Register(recording.Format{Name: "text", Ext: ".txt", New: func() recording.Backend { return New() }})
}

// Backend renders a recording as numbered lines. Draw lines are
// followed by the bound textures when Verbose is set.
type Backend struct {
	Verbose bool

	buf   bytes.Buffer
	index int
	done  bool
}

// New returns an empty text backend.
func New() *Backend { return &Backend{} }

// Begin resets the output.
func (b *Backend) Begin(n int) error {
	b.buf.Reset()
	b.index = 0
	b.done = false
	b.buf.Grow(n * 64)
	return nil
}

// Command appends one line.
func (b *Backend) Command(c *recording.Command) error {
	fmt.Fprintf(&b.buf, "%4d  %s", b.index, c.String())
	if c.Err != nil {
		fmt.Fprintf(&b.buf, "  error: %v", c.Err)
	}
	b.buf.WriteByte('\n')
	if b.Verbose && c.Type == recording.CmdDraw {
		names := c.TextureNames()
		pairs := make([]string, len(names))
		for i, n := range names {
			pairs[i] = n + "=" + c.Textures[n]
		}
		fmt.Fprintf(&b.buf, "      program %s textures [%s]\n", c.Program, strings.Join(pairs, " "))
	}
	b.index++
	return nil
}

// End finalizes the output.
func (b *Backend) End() error {
	b.done = true
	return nil
}

// WriteTo writes the lines to w.
func (b *Backend) WriteTo(w io.Writer) (int64, error) {
	if !b.done {
		return 0, fmt.Errorf("text: WriteTo before End")
	}
	n, err := w.Write(b.buf.Bytes())
	return int64(n), err
}

// String returns the lines written so far.
func (b *Backend) String() string { return b.buf.String() }
