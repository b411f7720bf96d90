package tabular

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Workbook is the set of named worksheets parsed from one uploaded file or
// archive. Sheet names are unique.
type Workbook struct {
	sheets map[string]*Worksheet
}

// NewWorkbook wraps each named grid as a Worksheet.
func NewWorkbook(grids map[string]Grid) *Workbook {
	wb := &Workbook{sheets: make(map[string]*Worksheet, len(grids))}
	for name, g := range grids {
		wb.sheets[name] = NewWorksheet(name, g)
	}
	return wb
}

// NewWorkbookFromWorksheets builds a workbook from existing worksheets. A
// later worksheet replaces an earlier one with the same name.
func NewWorkbookFromWorksheets(sheets ...*Worksheet) *Workbook {
	wb := &Workbook{sheets: make(map[string]*Worksheet, len(sheets))}
	for _, ws := range sheets {
		wb.sheets[ws.Name()] = ws
	}
	return wb
}

// Worksheet returns the named worksheet.
func (wb *Workbook) Worksheet(name string) (*Worksheet, bool) {
	ws, ok := wb.sheets[name]
	return ws, ok
}

// Names returns the worksheet names, sorted.
func (wb *Workbook) Names() []string {
	names := make([]string, 0, len(wb.sheets))
	for name := range wb.sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of worksheets.
func (wb *Workbook) Len() int { return len(wb.sheets) }

// Validate runs the workbook validators in order and returns a snapshot of
// every worksheet's state, keyed by worksheet name.
func (wb *Workbook) Validate(validators ...WorkbookValidator) map[string]Snapshot {
	for _, v := range validators {
		v.ValidateWorkbook(wb)
	}
	return wb.Snapshots()
}

// Snapshots returns the current state of every worksheet.
func (wb *Workbook) Snapshots() map[string]Snapshot {
	out := make(map[string]Snapshot, len(wb.sheets))
	for name, ws := range wb.sheets {
		out[name] = ws.State().Snapshot()
	}
	return out
}

// ValidateWorksheets runs each worksheet's pipeline, keyed by worksheet name,
// with up to limit worksheets in flight (limit <= 0 means no limit).
// Pipelines for sheets not in the workbook are ignored. Cancellation is only
// observed between worksheets.
func (wb *Workbook) ValidateWorksheets(ctx context.Context, pipelines map[string][]Validator, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, name := range wb.Names() {
		validators, ok := pipelines[name]
		if !ok || len(validators) == 0 {
			continue
		}
		ws := wb.sheets[name]

		// Derive shared views before handing the sheet to a goroutine.
		ws.RowObjects()

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("validate worksheet %q: %w", ws.Name(), err)
			}
			ws.Validate(validators...)
			return nil
		})
	}

	return g.Wait()
}

// ParentChildKeyMatch checks that every child row's composite key over
// columns matches some parent row. Columns that are not headers of the child
// sheet are left out of the key. Dangling child rows are reported as one
// KeyError on the child sheet.
func ParentChildKeyMatch(parent, child string, columns []string) WorkbookValidator {
	return WorkbookValidatorFunc(func(wb *Workbook) {
		parentSheet, ok := wb.Worksheet(parent)
		if !ok {
			return
		}
		childSheet, ok := wb.Worksheet(child)
		if !ok {
			return
		}
		if len(columns) == 0 {
			return
		}
		childRows := childSheet.RowObjects()
		if len(childRows) == 0 {
			return
		}

		var keyCols []string
		for _, col := range columns {
			if _, ok := childRows[0][col]; ok {
				keyCols = append(keyCols, col)
			}
		}
		if len(keyCols) == 0 {
			return
		}

		parentKeys := make(map[string]bool)
		for _, row := range parentSheet.RowObjects() {
			parentKeys[serializeKey(row, keyCols)] = true
		}

		var dangling []int
		for i, row := range childRows {
			key := serializeKey(row, keyCols)
			if key == "" || parentKeys[key] {
				continue
			}
			dangling = append(dangling, rowNumber(i))
		}
		if len(dangling) == 0 {
			return
		}

		childSheet.State().AddKeyErrors(KeyError{
			ErrorCode: DanglingParentChildKey,
			Message: fmt.Sprintf("%s contains rows with no matching %s key on column(s): %s",
				child, parent, strings.Join(keyCols, ", ")),
			ColNames: keyCols,
			Rows:     dangling,
		})
	})
}

// serializeKey joins the non-empty trimmed values of columns.
func serializeKey(row map[string]Cell, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		cell, ok := row[col]
		if !ok {
			continue
		}
		v := strings.TrimSpace(cell.String())
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, keyDelimiter)
}
