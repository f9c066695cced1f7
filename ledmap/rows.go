package ledmap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedRow = errors.New("malformed wiring row")

// WiringRow is one installed strip segment
type WiringRow struct {
	PhysicalSegment int  // label of the wired strip, not used for addressing
	Forward         bool // LEDs count up along the segment
	LogicalSegment  int  // position in the logical strip order
	Line            int  // source line, 0 when unknown
}

func (r WiringRow) String() string {
	dir := "forward"
	if !r.Forward {
		dir = "reversed"
	}
	return fmt.Sprintf("physical %d, %s, logical %d", r.PhysicalSegment, dir, r.LogicalSegment)
}

// ParseError reports a wiring row that could not be parsed
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedRow, e.Err}
}

// record is one non-comment line of a wiring table; a nil fields slice marks a blank line
type record struct {
	line   int
	fields []string
}

// stripComment drops everything after '#' and surrounding blanks
func stripComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// ParseRecord converts the three fields of a wiring line into a row.
// Direction accepts 1/0 or true/false; nothing else is coerced.
func ParseRecord(line int, fields []string) (WiringRow, error) {
	if len(fields) != 3 {
		return WiringRow{}, &ParseError{Line: line, Err: fmt.Errorf("expected 3 fields, got %d", len(fields))}
	}

	physical, err := parseInt(line, "physical segment", fields[0])
	if err != nil {
		return WiringRow{}, err
	}
	value := strings.TrimSpace(fields[1])
	forward, err := strconv.ParseBool(value)
	if err != nil {
		return WiringRow{}, &ParseError{Line: line, Field: "direction", Value: value, Err: errors.New("expected 0 or 1")}
	}
	logical, err := parseInt(line, "logical segment", fields[2])
	if err != nil {
		return WiringRow{}, err
	}
	if logical < 0 {
		return WiringRow{}, &ParseError{Line: line, Field: "logical segment", Value: strings.TrimSpace(fields[2]), Err: ErrInvalidSegment}
	}

	return WiringRow{
		PhysicalSegment: physical,
		Forward:         forward,
		LogicalSegment:  logical,
		Line:            line,
	}, nil
}

func parseInt(line int, field, value string) (int, error) {
	value = strings.TrimSpace(value)
	n, err := strconv.Atoi(value)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, &ParseError{Line: line, Field: field, Value: value, Err: err}
	}
	return n, nil
}

// groupRecords parses records into rows. Blank records split groups;
// empty groups are dropped.
func groupRecords(records []record) ([][]WiringRow, error) {
	var groups [][]WiringRow
	var current []WiringRow
	for _, rec := range records {
		if rec.fields == nil {
			if len(current) > 0 {
				groups = append(groups, current)
				current = nil
			}
			continue
		}
		row, err := ParseRecord(rec.line, rec.fields)
		if err != nil {
			return nil, err
		}
		current = append(current, row)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups, nil
}

// flatten concatenates groups in order
func flatten(groups [][]WiringRow) []WiringRow {
	var rows []WiringRow
	for _, g := range groups {
		rows = append(rows, g...)
	}
	return rows
}
