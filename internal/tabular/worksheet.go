package tabular

import (
	"strings"
	"sync"
)

// Worksheet is one named sheet reduced to a header row plus its non-blank
// data rows. Derived views are computed on first use and cached; they never
// change afterwards, so validators may read them concurrently.
type Worksheet struct {
	name  string
	grid  Grid
	state *ValidationState

	headersOnce sync.Once
	headers     []string
	headersLow  []string

	rowsOnce sync.Once
	rows     [][]Cell

	objectsOnce sync.Once
	objects     []map[string]Cell
}

// NewWorksheet wraps a cell grid. A nil grid behaves like an empty sheet.
func NewWorksheet(name string, grid Grid) *Worksheet {
	return &Worksheet{
		name:  name,
		grid:  grid,
		state: NewValidationState(name),
	}
}

// Name returns the sheet name.
func (w *Worksheet) Name() string { return w.name }

// State returns the worksheet's validation state.
func (w *Worksheet) State() *ValidationState { return w.state }

func (w *Worksheet) bounds() (Range, bool) {
	if w.grid == nil {
		return Range{}, false
	}
	return w.grid.Bounds()
}

// Headers returns the trimmed values of the first row of the occupied range.
func (w *Worksheet) Headers() []string {
	w.headersOnce.Do(func() {
		b, ok := w.bounds()
		if !ok {
			w.headers = []string{}
			w.headersLow = []string{}
			return
		}
		w.headers = make([]string, 0, b.Cols())
		w.headersLow = make([]string, 0, b.Cols())
		for c := b.StartCol; c <= b.EndCol; c++ {
			h := strings.TrimSpace(normalize(w.grid.At(b.StartRow, c)).String())
			w.headers = append(w.headers, h)
			w.headersLow = append(w.headersLow, strings.ToLower(h))
		}
	})
	return w.headers
}

// HeadersLowerCase returns Headers lowercased, for case-insensitive lookups.
func (w *Worksheet) HeadersLowerCase() []string {
	w.Headers()
	return w.headersLow
}

// HeaderIndex returns the index of the exact header name, or -1.
func (w *Worksheet) HeaderIndex(name string) int {
	for i, h := range w.Headers() {
		if h == name {
			return i
		}
	}
	return -1
}

// headerIndexFold returns the index of the header matching name
// case-insensitively, or -1.
func (w *Worksheet) headerIndexFold(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, h := range w.HeadersLowerCase() {
		if h == name {
			return i
		}
	}
	return -1
}

// Rows returns the data rows below the header. Every row has one cell per
// header; rows whose cells are all empty are dropped.
func (w *Worksheet) Rows() [][]Cell {
	w.rowsOnce.Do(func() {
		w.rows = [][]Cell{}
		b, ok := w.bounds()
		if !ok {
			return
		}
		for r := b.StartRow + 1; r <= b.EndRow; r++ {
			row := make([]Cell, b.Cols())
			blank := true
			for c := b.StartCol; c <= b.EndCol; c++ {
				cell := normalize(w.grid.At(r, c))
				if !cell.IsEmpty() {
					blank = false
				}
				row[c-b.StartCol] = cell
			}
			if !blank {
				w.rows = append(w.rows, row)
			}
		}
	})
	return w.rows
}

// RowObjects returns each row keyed by header name. When a header repeats,
// the rightmost column wins.
func (w *Worksheet) RowObjects() []map[string]Cell {
	w.objectsOnce.Do(func() {
		headers := w.Headers()
		rows := w.Rows()
		w.objects = make([]map[string]Cell, len(rows))
		for i, row := range rows {
			obj := make(map[string]Cell, len(headers))
			for j, h := range headers {
				obj[h] = row[j]
			}
			w.objects[i] = obj
		}
	})
	return w.objects
}

// Cell returns the value under header in the given data row. The second
// result is false if the header is unknown or the row is out of bounds.
func (w *Worksheet) Cell(header string, rowIndex int) (Cell, bool) {
	col := w.HeaderIndex(header)
	rows := w.Rows()
	if col < 0 || rowIndex < 0 || rowIndex >= len(rows) {
		return Cell{}, false
	}
	return rows[rowIndex][col], true
}

// Validate runs the validators in order and returns the resulting state.
func (w *Worksheet) Validate(validators ...Validator) Snapshot {
	for _, v := range validators {
		v.Validate(w)
	}
	return w.state.Snapshot()
}

// rowNumber converts a 0-based data-row index into the 1-based spreadsheet
// row number, accounting for the header row.
func rowNumber(rowIndex int) int {
	return rowIndex + 2
}
