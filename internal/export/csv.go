package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// CSVWriter renders rows to an io.Writer in CSV form. The title is
// written as a leading comment-style row so multiple reports can share
// one stream.
type CSVWriter struct {
	w io.Writer
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

func (c *CSVWriter) WriteRows(ctx context.Context, title string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cw := csv.NewWriter(c.w)
	if err := cw.Write([]string{"# " + title}); err != nil {
		return fmt.Errorf("write title row: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = fmt.Sprint(cell)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
