// Package source reads the two raw network extracts and normalizes them into
// builder records. The spatial extract carries geometry and physical
// attributes; the schematic list carries declared connectivity. Both arrive
// as CSV with uneven quality, so malformed rows are logged and skipped, never
// fatal.
package source

import (
	"encoding/csv"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/hydroline/watertrace/errors"
	"github.com/hydroline/watertrace/network"
)

// Result is one adapter run: the normalized records plus how many input rows
// were rejected.
type Result struct {
	Records []network.Record
	Skipped int
}

// columns maps lower-cased header names to field positions.
type columns map[string]int

func readHeader(row []string) columns {
	cols := make(columns, len(row))
	for i, name := range row {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

// field returns the first non-empty value among the aliased column names.
func (c columns) field(row []string, names ...string) string {
	for _, n := range names {
		if i, ok := c[n]; ok && i < len(row) {
			if v := strings.TrimSpace(row[i]); v != "" {
				return v
			}
		}
	}
	return ""
}

func (c columns) has(names ...string) bool {
	for _, n := range names {
		if _, ok := c[n]; ok {
			return true
		}
	}
	return false
}

func parseCategory(s string) (network.Category, error) {
	switch strings.ToLower(s) {
	case "", "node":
		return network.CategoryNode, nil
	case "arc":
		return network.CategoryArc, nil
	default:
		return "", errors.Newf("unknown category %q", s)
	}
}

// parseActive treats an absent flag as active: the extracts only mark
// decommissioned elements explicitly.
func parseActive(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "1", "true", "y", "yes", "active":
		return true, nil
	case "0", "false", "n", "no", "inactive":
		return false, nil
	default:
		return false, errors.Newf("unknown active flag %q", s)
	}
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

func readRows(cr *csv.Reader, logger *zap.SugaredLogger, parse func(columns, []string) (network.Record, error)) (*Result, error) {
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("input is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	cols := readHeader(header)
	if !cols.has("short_code", "identifier") {
		return nil, errors.New("input has no short_code column")
	}

	result := &Result{}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warnw("Skipping malformed row", "line", line, "error", err)
			result.Skipped++
			continue
		}

		rec, err := parse(cols, row)
		if err != nil {
			logger.Warnw("Skipping invalid row", "line", line, "error", err)
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}
