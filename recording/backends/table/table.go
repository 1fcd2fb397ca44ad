// Package table provides a recording backend that writes CSV, one row
// per command.
//
//	import _ "github.com/prajeeshag/windgl/recording/backends/table"
package table

import (
	"bytes"
	"errors"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/prajeeshag/windgl/recording"
)

func init() {
	recording.Register(recording.Format{Name: "table", Ext: ".csv", New: func() recording.Backend { return New() }})
}

// Row is the CSV form of a command.
type Row struct {
	Index       int    `csv:"index"`
	Type        string `csv:"type"`
	Label       string `csv:"label"`
	Target      string `csv:"target"`
	Width       int    `csv:"width"`
	Height      int    `csv:"height"`
	Program     string `csv:"program"`
	Primitive   string `csv:"primitive"`
	Blend       string `csv:"blend"`
	VertexCount int    `csv:"vertices"`
	Error       string `csv:"error"`
}

// Backend collects rows and marshals them on End.
type Backend struct {
	rows []*Row
	out  bytes.Buffer
	done bool
}

// New returns an empty table backend.
func New() *Backend { return &Backend{} }

// Begin resets the backend.
func (b *Backend) Begin(n int) error {
	b.rows = make([]*Row, 0, n)
	b.out.Reset()
	b.done = false
	return nil
}

// Command appends a row.
func (b *Backend) Command(c *recording.Command) error {
	r := &Row{
		Index:  len(b.rows),
		Type:   c.Type.String(),
		Label:  c.Label,
		Target: c.Target,
		Width:  c.Width,
		Height: c.Height,
	}
	if c.Type == recording.CmdDraw {
		r.Program = c.Program
		r.Primitive = c.Primitive.String()
		r.Blend = c.Blend.String()
		r.VertexCount = c.VertexCount
	}
	if c.Err != nil {
		r.Error = c.Err.Error()
	}
	b.rows = append(b.rows, r)
	return nil
}

// End marshals the rows.
func (b *Backend) End() error {
	if err := gocsv.Marshal(b.rows, &b.out); err != nil {
		return err
	}
	b.done = true
	return nil
}

// Rows returns the collected rows.
func (b *Backend) Rows() []*Row { return b.rows }

// WriteTo writes the CSV to w.
func (b *Backend) WriteTo(w io.Writer) (int64, error) {
	if !b.done {
		return 0, errors.New("table: WriteTo before End")
	}
	n, err := w.Write(b.out.Bytes())
	return int64(n), err
}

// ParseRows reads rows written by WriteTo.
func ParseRows(r io.Reader) ([]*Row, error) {
	var rows []*Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
