package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

// WriteCSV writes t as comma-separated values with a header row. Every
// field is double-quoted. A UTF-8 byte order mark is emitted first so
// spreadsheet applications detect the encoding.
func WriteCSV(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(utf8BOM); err != nil {
		return err
	}
	if err := writeCSVRow(bw, t.Headers); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("row %d has %d fields, want %d", i, len(row), len(t.Headers))
		}
		if err := writeCSVRow(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeCSVRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

// ReadCSV parses the output of WriteCSV back into a table without title.
func ReadCSV(r io.Reader) (Table, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return Table{}, err
		}
	}
	records, err := csv.NewReader(br).ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}
	return Table{Headers: records[0], Rows: records[1:]}, nil
}
