package tabular

import "strings"

// header_validators.go holds the rules that inspect only the header row.
//
// Duplicate detection is case-sensitive; every other header rule compares
// names case-insensitively after trimming.

// DuplicateHeaders flags each header value that occurs more than once. One
// error is raised per repeated name, on its second occurrence.
func DuplicateHeaders() Validator {
	return ValidatorFunc(func(w *Worksheet) {
		seen := make(map[string]bool)
		reported := make(map[string]bool)
		var errs []HeaderError

		for _, h := range w.Headers() {
			if !seen[h] {
				seen[h] = true
				continue
			}
			if reported[h] {
				continue
			}
			reported[h] = true
			errs = append(errs, HeaderError{
				ErrorCode: DuplicateHeader,
				Message:   "Duplicate header",
				Col:       h,
			})
		}

		w.State().AddHeaderErrors(errs...)
	})
}

// RequiredHeaders flags each configured header missing from the sheet.
func RequiredHeaders(columns []string) Validator {
	return ValidatorFunc(func(w *Worksheet) {
		if len(columns) == 0 {
			return
		}
		var errs []HeaderError
		for _, col := range missingHeaders(w, columns) {
			errs = append(errs, HeaderError{
				ErrorCode: MissingRequiredHeader,
				Message:   "Missing required header",
				Col:       col,
			})
		}
		w.State().AddHeaderErrors(errs...)
	})
}

// RecommendedHeaders warns about each configured header missing from the
// sheet. Warnings do not affect validity.
func RecommendedHeaders(columns []string) Validator {
	return ValidatorFunc(func(w *Worksheet) {
		if len(columns) == 0 {
			return
		}
		var warns []HeaderError
		for _, col := range missingHeaders(w, columns) {
			warns = append(warns, HeaderError{
				ErrorCode: MissingRecommendedHeader,
				Message:   "Missing recommended header",
				Col:       col,
			})
		}
		w.State().AddHeaderWarnings(warns...)
	})
}

// ValidHeaders warns about each header that is not in the allow-list.
func ValidHeaders(columns []string) Validator {
	return ValidatorFunc(func(w *Worksheet) {
		if len(columns) == 0 {
			return
		}
		allowed := lowerSet(columns)
		var warns []HeaderError
		for i, h := range w.HeadersLowerCase() {
			if allowed[h] {
				continue
			}
			warns = append(warns, HeaderError{
				ErrorCode: UnknownHeader,
				Message:   "Unsupported header",
				Col:       w.Headers()[i],
			})
		}
		w.State().AddHeaderWarnings(warns...)
	})
}

// missingHeaders returns the configured columns absent from the sheet, in
// configured order.
func missingHeaders(w *Worksheet, columns []string) []string {
	present := lowerSet(w.HeadersLowerCase())
	var missing []string
	for _, col := range columns {
		if !present[strings.ToLower(strings.TrimSpace(col))] {
			missing = append(missing, col)
		}
	}
	return missing
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}
