package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a column-ordered table shared by all export renderers. Each
// row must line up with Columns by index.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// CSVExporter renders a Dataset as RFC 4180 CSV.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset, header row first.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}
	records := make([][]string, 0, len(data.Rows)+1)
	records = append(records, data.Columns)
	for _, row := range data.Rows {
		record := make([]string, len(data.Columns))
		copy(record, row)
		records = append(records, record)
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
