// Package report renders audit findings in export formats.
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ppiankov/cspdemo/internal/audit"
)

var csvHeader = []string{
	"page", "header", "directive", "tag", "url", "resolved", "inline", "allowed", "reason",
}

// WriteCSV writes one row per finding of r to w.
func WriteCSV(w io.Writer, r *audit.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for i := range r.Findings {
		f := &r.Findings[i]
		row := []string{
			r.Page,
			r.Header,
			f.Kind,
			f.Tag,
			f.URL,
			f.Resolved,
			strconv.FormatBool(f.Inline),
			strconv.FormatBool(f.Allowed),
			f.Reason,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
