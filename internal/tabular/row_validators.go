package tabular

// row_validators.go holds the rules that inspect data rows.
//
// Column lookup is case-insensitive. When the configured column is not a
// header of the sheet, the rule does nothing: a missing column is the job of
// RequiredHeaders. Reported row numbers are spreadsheet row numbers (the data
// row index plus two).

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// keyDelimiter joins the parts of a composite key.
const keyDelimiter = "|"

// CodeValue is one allowed value of a coded column.
type CodeValue struct {
	Name        string
	Description string
}

// eachCell calls fn for every data row's value in column. It is a no-op if
// the column is absent.
func eachCell(w *Worksheet, column string, fn func(rowIndex int, cell Cell)) {
	col := w.headerIndexFold(column)
	if col < 0 {
		return
	}
	for i, row := range w.Rows() {
		fn(i, row[col])
	}
}

// RequiredField flags every row whose value in column is empty.
func RequiredField(column string) Validator {
	return ValidatorFunc(func(w *Worksheet) {
		var errs []RowError
		eachCell(w, column, func(i int, cell Cell) {
			if !cell.IsEmpty() {
				return
			}
			errs = append(errs, RowError{
				ErrorCode: MissingRequiredField,
				Message:   "Missing required value for column",
				Col:       column,
				Row:       rowNumber(i),
			})
		})
		w.State().AddRowErrors(errs...)
	})
}

// CodeValues flags every non-empty value that does not match one of the
// allowed codes, ignoring case.
func CodeValues(column string, codes []CodeValue) Validator {
	allowed := make(map[string]bool, len(codes))
	names := make([]string, len(codes))
	for i, c := range codes {
		allowed[strings.ToLower(c.Name)] = true
		names[i] = c.Name
	}
	listing := strings.Join(names, ", ")

	return ValidatorFunc(func(w *Worksheet) {
		var errs []RowError
		eachCell(w, column, func(i int, cell Cell) {
			if cell.IsEmpty() || allowed[strings.ToLower(cell.String())] {
				return
			}
			errs = append(errs, RowError{
				ErrorCode: InvalidValue,
				Message:   fmt.Sprintf("Invalid value: %s. Must be one of [%s]", cell.String(), listing),
				Col:       column,
				Row:       rowNumber(i),
			})
		})
		w.State().AddRowErrors(errs...)
	})
}

// NumericField flags every non-empty value that is not a number.
func NumericField(column string) Validator {
	return ValidatorFunc(func(w *Worksheet) {
		var errs []RowError
		eachCell(w, column, func(i int, cell Cell) {
			if cell.IsEmpty() {
				return
			}
			if _, ok := cell.Float(); ok {
				return
			}
			errs = append(errs, notANumber(column, i, cell))
		})
		w.State().AddRowErrors(errs...)
	})
}

// RangeField flags numeric values outside [min, max]; either bound may be nil.
// Non-numeric values are reported as invalid. With no bounds it does nothing.
func RangeField(column string, min, max *float64) Validator {
	return ValidatorFunc(func(w *Worksheet) {
		if min == nil && max == nil {
			return
		}
		var errs []RowError
		eachCell(w, column, func(i int, cell Cell) {
			if cell.IsEmpty() {
				return
			}
			n, ok := cell.Float()
			if !ok {
				errs = append(errs, notANumber(column, i, cell))
				return
			}
			if (min == nil || n >= *min) && (max == nil || n <= *max) {
				return
			}

			var msg string
			switch {
			case min != nil && max != nil:
				msg = fmt.Sprintf("Invalid value: %s. Must be between %s and %s", cell.String(), formatBound(*min), formatBound(*max))
			case max != nil:
				msg = fmt.Sprintf("Invalid value: %s. Must be less than or equal to %s", cell.String(), formatBound(*max))
			default:
				msg = fmt.Sprintf("Invalid value: %s. Must be greater than or equal to %s", cell.String(), formatBound(*min))
			}
			errs = append(errs, RowError{
				ErrorCode: OutOfRange,
				Message:   msg,
				Col:       column,
				Row:       rowNumber(i),
			})
		})
		w.State().AddRowErrors(errs...)
	})
}

// FormatField flags every non-empty value that does not match pattern.
// flags uses the single-letter regular expression flag convention: i, m and
// s change matching; g, u and y are accepted and ignored. An empty pattern
// yields a validator that does nothing.
func FormatField(column, pattern, flags, expected string) (Validator, error) {
	if pattern == "" {
		return ValidatorFunc(func(*Worksheet) {}), nil
	}

	re, err := compilePattern(pattern, flags)
	if err != nil {
		return nil, fmt.Errorf("format rule for column %q: %w", column, err)
	}

	return ValidatorFunc(func(w *Worksheet) {
		var errs []RowError
		eachCell(w, column, func(i int, cell Cell) {
			if cell.IsEmpty() || re.MatchString(cell.String()) {
				return
			}
			errs = append(errs, RowError{
				ErrorCode: UnexpectedFormat,
				Message:   fmt.Sprintf("Unexpected Format: %s. %s", cell.String(), expected),
				Col:       column,
				Row:       rowNumber(i),
			})
		})
		w.State().AddRowErrors(errs...)
	}), nil
}

// UniqueRows flags every row whose composite key over columns repeats an
// earlier row's key. Values are trimmed and lowercased. The whole check is
// skipped if any of the columns is missing.
func UniqueRows(columns []string) Validator {
	return ValidatorFunc(func(w *Worksheet) {
		if len(columns) == 0 {
			return
		}
		idx := make([]int, len(columns))
		for i, col := range columns {
			idx[i] = w.headerIndexFold(col)
			if idx[i] < 0 {
				return
			}
		}
		colList := strings.Join(columns, ", ")

		seen := make(map[string]bool)
		var errs []RowError
		for i, row := range w.Rows() {
			parts := make([]string, len(idx))
			for j, c := range idx {
				parts[j] = strings.ToLower(strings.TrimSpace(row[c].String()))
			}
			key := strings.Join(parts, keyDelimiter)
			if !seen[key] {
				seen[key] = true
				continue
			}
			errs = append(errs, RowError{
				ErrorCode: NonUniqueKey,
				Message:   fmt.Sprintf("Duplicate key(s): %s found in column(s): %s", key, colList),
				Col:       colList,
				Row:       rowNumber(i),
			})
		}
		w.State().AddRowErrors(errs...)
	})
}

func notANumber(column string, rowIndex int, cell Cell) RowError {
	return RowError{
		ErrorCode: InvalidValue,
		Message:   fmt.Sprintf("Invalid value: %s. Must be a valid number", cell.String()),
		Col:       column,
		Row:       rowNumber(rowIndex),
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// compilePattern compiles pattern with the given single-letter flags.
func compilePattern(pattern, flags string) (*regexp.Regexp, error) {
	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if !strings.ContainsRune(inline.String(), f) {
				inline.WriteRune(f)
			}
		case 'g', 'u', 'y':
		default:
			return nil, fmt.Errorf("unsupported regular expression flag %q", f)
		}
	}
	if inline.Len() > 0 {
		pattern = "(?" + inline.String() + ")" + pattern
	}
	return regexp.Compile(pattern)
}
