package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/erlorenz/bc-go/internal/constants"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

const (
	Masked = "***"

	defaultJSONIndent = "  "
	odataPrefix       = "@odata."
)

// Record is an untyped entity as returned by any endpoint.
type Record = map[string]interface{}

// writeOutput renders value in the requested format. fill populates the table
// for the table format.
func writeOutput(w io.Writer, format string, value interface{}, fill func(table *tablewriter.Table)) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", defaultJSONIndent)

		return encoder.Encode(value)
	case constants.FormatYAML:
		data, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}

		_, err = w.Write(data)

		return err
	case constants.FormatTable, "":
		table := tablewriter.NewWriter(w)
		fill(table)

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", constants.ErrInvalidOutputFormat, format)
	}
}

func writeRecords(w io.Writer, format string, records []Record, columns []string) error {
	if len(columns) == 0 {
		columns = defaultColumns(records)
	}

	return writeOutput(w, format, records, func(table *tablewriter.Table) {
		table.Header(toCells(columns)...)

		for _, record := range records {
			row := make([]string, len(columns))
			for i, column := range columns {
				row[i] = formatCell(record[column])
			}

			_ = table.Append(toCells(row)...)
		}
	})
}

func writeRecord(w io.Writer, format string, record Record) error {
	return writeOutput(w, format, record, func(table *tablewriter.Table) {
		table.Header("Property", "Value")

		for _, key := range sortedKeys(record) {
			if strings.HasPrefix(key, odataPrefix) {
				continue
			}

			_ = table.Append(key, formatCell(record[key]))
		}
	})
}

// defaultColumns is the sorted union of record keys, without OData
// annotations.
func defaultColumns(records []Record) []string {
	seen := map[string]bool{}

	var columns []string

	for _, record := range records {
		for key := range record {
			if seen[key] || strings.HasPrefix(key, odataPrefix) {
				continue
			}

			seen[key] = true
			columns = append(columns, key)
		}
	}

	sort.Strings(columns)

	return columns
}

func formatCell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	}
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, value := range values {
		cells[i] = value
	}

	return cells
}

func sortedKeys(values map[string]interface{}) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
