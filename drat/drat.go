// Package drat implements a writer for the DRAT unsatisfiability
// certificate format: an append-only sequence of records, each a list
// of signed integers terminated by 0, with deletions prefixed by "d ".
package drat

import (
	"bufio"
	"io"
	"strconv"

	"github.com/rhartert/yass/internal/sat"
)

// Writer renders a ClauseDB's add/delete event stream to an
// io.Writer, implementing sat.Certifier. All calls must come from a
// single goroutine; Writer does no synchronization of its own, mapping
// the solver's single-threaded cooperative execution model described
// in the core's design notes.
type Writer struct {
	w   *bufio.Writer
	buf []byte
}

// New returns a Writer that appends records to w. Callers own w and
// must call Flush (and Close it themselves, if applicable) once the
// solver run is finished.
func New(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// AddClause appends an addition record for lits.
func (d *Writer) AddClause(lits []sat.Literal) {
	d.writeRecord(lits, false)
}

// DeleteClause appends a deletion record for lits.
func (d *Writer) DeleteClause(lits []sat.Literal) {
	d.writeRecord(lits, true)
}

func (d *Writer) writeRecord(lits []sat.Literal, deletion bool) {
	d.buf = d.buf[:0]
	if deletion {
		d.buf = append(d.buf, 'd', ' ')
	}
	for _, l := range lits {
		n := l.VarID() + 1
		if !l.IsPositive() {
			d.buf = append(d.buf, '-')
		}
		d.buf = strconv.AppendInt(d.buf, int64(n), 10)
		d.buf = append(d.buf, ' ')
	}
	d.buf = append(d.buf, '0', '\n')
	d.w.Write(d.buf)
}

// FinalizeUNSAT appends the trailing empty-clause record that marks a
// completed UNSAT refutation.
func (d *Writer) FinalizeUNSAT() error {
	if _, err := d.w.WriteString("0\n"); err != nil {
		return err
	}
	return d.w.Flush()
}

// Flush writes any buffered records to the underlying writer.
func (d *Writer) Flush() error {
	return d.w.Flush()
}
