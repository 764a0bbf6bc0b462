// Package printer provides output formatting utilities for the CLI
package printer

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
)

// ColumnMapping defines a mapping between original field names and display names
type ColumnMapping [][]string

// parseTableData converts a JSON string + column mapping into headers and string rows.
func parseTableData(jsonStr string, mapping ColumnMapping) ([]string, [][]string, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &rows); err != nil {
		return nil, nil, fmt.Errorf("parse json: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	// Prepare header and field mapping
	var header []string

	if len(mapping) > 0 {
		for _, m := range mapping {
			if len(m) >= 2 {
				header = append(header, m[1])
			}
		}
	} else {
		for k := range rows[0] {
			header = append(header, k)
		}
		sort.Strings(header)
	}

	var tableRows [][]string
	for _, r := range rows {
		row := make([]string, len(header))
		if len(mapping) > 0 {
			for i, m := range mapping {
				if len(m) >= 2 {
					val, ok := r[m[0]]
					if !ok {
						row[i] = "-"
						continue
					}
					row[i] = fmt.Sprint(val)
				}
			}
		} else {
			for i, col := range header {
				val, ok := r[col]
				if !ok {
					row[i] = "-"
					continue
				}
				row[i] = fmt.Sprint(val)
			}
		}
		tableRows = append(tableRows, row)
	}

	return header, tableRows, nil
}

// renderPtermTable renders a boxed pterm table with a header row.
func renderPtermTable(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	for _, r := range rows {
		data = append(data, r)
	}
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed(true).
		WithData(data).
		Render()
}

// Print renders res as a table on stdout. res must marshal to a JSON
// array of objects; mappings picks and orders the columns, falling back
// to all fields in alphabetical order when empty.
func Print(res any, mappings ColumnMapping) error {
	resJSON, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	headers, rows, err := parseTableData(string(resJSON), mappings)
	if err != nil {
		log.Error().Msgf("failed to parse table data: %v", err)
		return err
	}

	if headers == nil {
		// No data to display
		return nil
	}

	if err := renderPtermTable(headers, rows); err != nil {
		log.Error().Msgf("failed to render table: %v", err)
		return err
	}

	return nil
}
