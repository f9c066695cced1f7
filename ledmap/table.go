package ledmap

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// WiringFormat is the file format of a wiring table
type WiringFormat int

const (
	WiringFormatUnknown WiringFormat = iota
	WiringFormatCSV                  // comma separated text, '#' comments
	WiringFormatXLSX                 // Excel workbook, first sheet
	WiringFormatYAML                 // YAML document with rows or loops
)

func (f WiringFormat) String() string {
	switch f {
	case WiringFormatCSV:
		return "CSV"
	case WiringFormatXLSX:
		return "XLSX"
	case WiringFormatYAML:
		return "YAML"
	default:
		return "Unknown"
	}
}

// DetectWiringFormat detects the table format from the filename extension.
// The check is case-insensitive.
func DetectWiringFormat(filename string) WiringFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return WiringFormatCSV
	case ".xlsx":
		return WiringFormatXLSX
	case ".yaml", ".yml":
		return WiringFormatYAML
	default:
		return WiringFormatUnknown
	}
}

// ReadWiringFile reads all rows of a wiring table in file order
func ReadWiringFile(filename string) ([]WiringRow, error) {
	groups, err := ReadWiringGroups(filename)
	if err != nil {
		return nil, err
	}
	return flatten(groups), nil
}

// ReadWiringGroups reads a wiring table split into groups at blank lines.
// The format is chosen by DetectWiringFormat.
func ReadWiringGroups(filename string) ([][]WiringRow, error) {
	format := DetectWiringFormat(filename)
	if format == WiringFormatUnknown {
		return nil, fmt.Errorf("unknown wiring table format for file: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open wiring table: %w", err)
	}
	defer file.Close()

	var groups [][]WiringRow
	switch format {
	case WiringFormatCSV:
		groups, err = ParseGroups(file)
	case WiringFormatXLSX:
		groups, err = ReadXLSX(file)
	case WiringFormatYAML:
		groups, err = ReadYAML(file)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return groups, nil
}

// ParseRows parses a CSV wiring table. Comments and blank lines are skipped.
func ParseRows(r io.Reader) ([]WiringRow, error) {
	groups, err := ParseGroups(r)
	if err != nil {
		return nil, err
	}
	return flatten(groups), nil
}

// ParseGroups parses a CSV wiring table where blank lines separate loops.
// Lines holding only a comment do not separate anything.
func ParseGroups(r io.Reader) ([][]WiringRow, error) {
	var records []record
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			records = append(records, record{line: line})
			continue
		}
		raw := stripComment(text)
		if raw == "" {
			continue
		}

		cr := csv.NewReader(strings.NewReader(raw))
		cr.TrimLeadingSpace = true
		fields, err := cr.Read()
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		records = append(records, record{line: line, fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wiring table: %w", err)
	}
	return groupRecords(records)
}

// ReadXLSX reads the first sheet of a workbook. An optional header row is
// skipped, as are rows whose first cell starts with '#'. Empty rows
// separate loops.
func ReadXLSX(r io.Reader) ([][]WiringRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	var records []record
	for i, cells := range rows {
		line := i + 1
		fields := trimCells(cells)
		if len(fields) == 0 {
			records = append(records, record{line: line})
			continue
		}
		if strings.HasPrefix(fields[0], "#") {
			continue
		}
		if i == 0 {
			if _, err := strconv.Atoi(fields[0]); err != nil {
				continue // header
			}
		}
		records = append(records, record{line: line, fields: fields})
	}
	return groupRecords(records)
}

// trimCells trims every cell and drops trailing empty ones
func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// yamlRow is one row of a YAML wiring table
type yamlRow struct {
	Physical int   `yaml:"physical"`
	Forward  *bool `yaml:"forward"`
	Logical  *int  `yaml:"logical"`
}

// ReadYAML reads a YAML wiring table. The document holds either a flat
// "rows" list or a "loops" list whose items each carry their own "rows".
//
//	loops:
//	  - rows:
//	      - {physical: 1, forward: true, logical: 0}
func ReadYAML(r io.Reader) ([][]WiringRow, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: root.Line, Err: errors.New("expected a mapping with rows or loops")}
	}

	if rows := mappingValue(root, "rows"); rows != nil {
		group, err := yamlRows(rows)
		if err != nil {
			return nil, err
		}
		if len(group) == 0 {
			return nil, nil
		}
		return [][]WiringRow{group}, nil
	}

	loops := mappingValue(root, "loops")
	if loops == nil {
		return nil, &ParseError{Line: root.Line, Err: errors.New("expected a rows or loops key")}
	}
	if loops.Kind != yaml.SequenceNode {
		return nil, &ParseError{Line: loops.Line, Err: errors.New("loops must be a list")}
	}
	var groups [][]WiringRow
	for _, item := range loops.Content {
		rows := mappingValue(item, "rows")
		if rows == nil {
			return nil, &ParseError{Line: item.Line, Err: errors.New("loop has no rows")}
		}
		group, err := yamlRows(rows)
		if err != nil {
			return nil, err
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func yamlRows(node *yaml.Node) ([]WiringRow, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &ParseError{Line: node.Line, Err: errors.New("rows must be a list")}
	}
	rows := make([]WiringRow, 0, len(node.Content))
	for _, item := range node.Content {
		var yr yamlRow
		if err := item.Decode(&yr); err != nil {
			return nil, &ParseError{Line: item.Line, Err: err}
		}
		if yr.Forward == nil {
			return nil, &ParseError{Line: item.Line, Err: errors.New("missing forward")}
		}
		if yr.Logical == nil {
			return nil, &ParseError{Line: item.Line, Err: errors.New("missing logical")}
		}
		if *yr.Logical < 0 {
			return nil, &ParseError{Line: item.Line, Field: "logical segment", Value: strconv.Itoa(*yr.Logical), Err: ErrInvalidSegment}
		}
		rows = append(rows, WiringRow{
			PhysicalSegment: yr.Physical,
			Forward:         *yr.Forward,
			LogicalSegment:  *yr.Logical,
			Line:            item.Line,
		})
	}
	return rows, nil
}

// mappingValue returns the value node stored under key, or nil
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
