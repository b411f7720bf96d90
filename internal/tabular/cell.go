package tabular

// cell.go defines the cell-grid input handed to this package by a spreadsheet
// loader, and the normalized cell value that worksheets expose.
//
// The loader owns parsing. This package only ever sees a Grid: a rectangular
// occupied range plus typed values addressed by absolute (row, col).

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CellKind identifies the type of a cell value.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
	CellDate
	CellBool
)

// isoLayout matches the millisecond ISO-8601 form used for date cells.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// numericRegex validates that a string is a valid numeric format.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// RawCell is one typed value from the external cell grid.
type RawCell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
	Bool   bool
}

// Text returns a string cell.
func Text(s string) RawCell { return RawCell{Kind: CellString, Text: s} }

// Number returns a numeric cell.
func Number(n float64) RawCell { return RawCell{Kind: CellNumber, Number: n} }

// Date returns a date cell.
func Date(t time.Time) RawCell { return RawCell{Kind: CellDate, Time: t} }

// Bool returns a boolean cell.
func Bool(b bool) RawCell { return RawCell{Kind: CellBool, Bool: b} }

// Range is an inclusive, 0-based occupied range.
type Range struct {
	StartRow, StartCol int
	EndRow, EndCol     int
}

// Cols returns the number of columns spanned by the range.
func (r Range) Cols() int { return r.EndCol - r.StartCol + 1 }

// Grid is a single sheet's addressable cell grid.
type Grid interface {
	// Bounds returns the occupied range; false if the sheet holds no cells.
	Bounds() (Range, bool)
	// At returns the cell at an absolute position; out-of-range cells are empty.
	At(row, col int) RawCell
}

// MemGrid is a slice-backed Grid. Rows may be ragged.
type MemGrid struct {
	cells  [][]RawCell
	bounds Range
	ok     bool
}

// NewGrid builds a MemGrid whose occupied range is the smallest rectangle
// covering every non-empty cell.
func NewGrid(cells [][]RawCell) *MemGrid {
	g := &MemGrid{cells: cells}
	for r, row := range cells {
		for c, cell := range row {
			if cell.Kind == CellEmpty {
				continue
			}
			if !g.ok {
				g.bounds = Range{StartRow: r, StartCol: c, EndRow: r, EndCol: c}
				g.ok = true
				continue
			}
			g.bounds.StartRow = min(g.bounds.StartRow, r)
			g.bounds.StartCol = min(g.bounds.StartCol, c)
			g.bounds.EndRow = max(g.bounds.EndRow, r)
			g.bounds.EndCol = max(g.bounds.EndCol, c)
		}
	}
	return g
}

// StringGrid builds a MemGrid from plain strings. Empty strings are empty cells.
func StringGrid(rows [][]string) *MemGrid {
	cells := make([][]RawCell, len(rows))
	for i, row := range rows {
		cells[i] = make([]RawCell, len(row))
		for j, v := range row {
			if v != "" {
				cells[i][j] = Text(v)
			}
		}
	}
	return NewGrid(cells)
}

// Bounds implements Grid.
func (g *MemGrid) Bounds() (Range, bool) { return g.bounds, g.ok }

// At implements Grid.
func (g *MemGrid) At(row, col int) RawCell {
	if row < 0 || row >= len(g.cells) || col < 0 || col >= len(g.cells[row]) {
		return RawCell{}
	}
	return g.cells[row][col]
}

// Cell is a normalized worksheet value: dates are rendered as ISO-8601
// strings and text is trimmed.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// normalize converts a raw grid value into a worksheet Cell.
func normalize(raw RawCell) Cell {
	switch raw.Kind {
	case CellString:
		return Cell{Kind: CellString, Text: strings.TrimSpace(raw.Text)}
	case CellNumber:
		return Cell{Kind: CellNumber, Number: raw.Number}
	case CellDate:
		return Cell{Kind: CellString, Text: raw.Time.UTC().Format(isoLayout)}
	case CellBool:
		return Cell{Kind: CellBool, Text: strconv.FormatBool(raw.Bool)}
	default:
		return Cell{}
	}
}

// IsEmpty reports whether the cell holds no value or an empty string.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellString:
		return c.Text == ""
	default:
		return false
	}
}

// String renders the cell the way it appears in messages and keys.
func (c Cell) String() string {
	if c.Kind == CellNumber {
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return c.Text
}

// Float coerces the cell to a number. Text must be a plain decimal or
// scientific literal after trimming.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Number, true
	case CellString:
		s := strings.TrimSpace(c.Text)
		if !numericRegex.MatchString(s) {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
