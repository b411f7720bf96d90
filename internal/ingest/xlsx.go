package ingest

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/SurveyIntake/internal/tabular"
)

// builtinDateFormats are the built-in number format IDs that render a serial
// number as a date or time.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true,
	20: true, 21: true, 22: true, 45: true, 46: true, 47: true,
}

// literalSections removes quoted text, escaped characters and bracketed
// sections (colors, locales, elapsed time) from a custom number format.
var literalSections = regexp.MustCompile(`"[^"]*"|\\.|\[[^\]]*\]`)

// ReadXLSX parses a workbook into one grid per sheet. Numeric cells with a
// date number format become date cells; booleans keep their type and all
// other cells are text.
func ReadXLSX(r io.Reader) (*tabular.Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not an xlsx workbook: %v", ErrUnsupportedFile, err)
	}
	defer f.Close()

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnsupportedFile)
	}

	grids := make(map[string]tabular.Grid, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}

		cells := make([][]tabular.RawCell, len(rows))
		for i, row := range rows {
			cells[i] = make([]tabular.RawCell, len(row))
			for j, raw := range row {
				if raw == "" {
					continue
				}
				axis, err := excelize.CoordinatesToCellName(j+1, i+1)
				if err != nil {
					return nil, fmt.Errorf("sheet %q: %w", sheet, err)
				}
				cells[i][j] = typedCell(f, sheet, axis, raw, date1904)
			}
		}
		grids[sheet] = tabular.NewGrid(cells)
	}

	return tabular.NewWorkbook(grids), nil
}

func typedCell(f *excelize.File, sheet, axis, raw string, date1904 bool) tabular.RawCell {
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return tabular.Text(raw)
	}

	switch typ {
	case excelize.CellTypeBool:
		return tabular.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return tabular.Date(t)
		}
		return tabular.Text(raw)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return tabular.Text(raw)
		}
		if hasDateFormat(f, sheet, axis) {
			if t, err := excelize.ExcelDateToTime(n, date1904); err == nil {
				return tabular.Date(t)
			}
		}
		return tabular.Number(n)
	default:
		return tabular.Text(raw)
	}
}

func hasDateFormat(f *excelize.File, sheet, axis string) bool {
	styleID, err := f.GetCellStyle(sheet, axis)
	if err != nil || styleID == 0 {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if builtinDateFormats[style.NumFmt] {
		return true
	}
	if style.CustomNumFmt == nil {
		return false
	}
	return isDateLayout(*style.CustomNumFmt)
}

// isDateLayout reports whether a custom number format renders dates.
func isDateLayout(format string) bool {
	format = strings.ToLower(literalSections.ReplaceAllString(format, ""))
	return strings.ContainsAny(format, "yd") || strings.Contains(format, "h:") || strings.Contains(format, "mmm")
}
