// Package tabular is the validation engine for spreadsheet-shaped survey
// submissions.
//
// It has no I/O and no configuration lookup. A loader hands it one [Grid] per
// sheet; it derives headers and rows, runs validators, and reports what it
// found as structured data.
//
// # Model
//
//   - [Worksheet]: one sheet reduced to a trimmed header row plus non-blank
//     data rows. Views are computed once and cached.
//   - [Workbook]: the named worksheets of one upload.
//   - [ValidationState]: per-worksheet error lists and a validity flag.
//
// # Validators
//
// A [Validator] inspects one worksheet; a [WorkbookValidator] may look across
// sheets. Violations never stop evaluation: every rule sees every row, and the
// final [Snapshot] lists everything found in one pass.
//
//	snap := ws.Validate(
//	    tabular.DuplicateHeaders(),
//	    tabular.RequiredHeaders([]string{"eventID"}),
//	    tabular.RequiredField("eventID"),
//	)
//
// Warnings (MISSING_RECOMMENDED_HEADER, UNKNOWN_HEADER) are listed alongside
// errors but leave the worksheet valid.
//
// # Row numbers
//
// Reported rows are spreadsheet row numbers: the 0-based data-row index plus
// two, skipping the header row.
package tabular
