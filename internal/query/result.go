package query

import (
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Result holds the record batches of one statement.
type Result struct {
	Schema  *arrow.Schema
	Records []arrow.Record
}

// NumRows sums the rows over all batches.
func (r *Result) NumRows() int64 {
	var n int64
	for _, rec := range r.Records {
		n += rec.NumRows()
	}
	return n
}

// Release frees the batches.
func (r *Result) Release() {
	for _, rec := range r.Records {
		rec.Release()
	}
	r.Records = nil
}

// WriteTo prints a header line and one tab separated line per row.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	if r.Schema != nil {
		for i, f := range r.Schema.Fields() {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(f.Name)
		}
		sb.WriteByte('\n')
	}
	for _, rec := range r.Records {
		cols := rec.Columns()
		for row := 0; row < int(rec.NumRows()); row++ {
			for i, col := range cols {
				if i > 0 {
					sb.WriteByte('\t')
				}
				sb.WriteString(col.ValueStr(row))
			}
			sb.WriteByte('\n')
		}
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}
