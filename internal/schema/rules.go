package schema

import (
	"fmt"

	"github.com/JonMunkholm/SurveyIntake/internal/tabular"
)

// Rule is one declarative validation rule. The set of rule kinds is closed;
// each variant carries only the fields its rule needs.
type Rule interface {
	// Kind returns the rule's configuration key.
	Kind() string
	isRule()
}

// DuplicateHeadersRule flags repeated header names.
type DuplicateHeadersRule struct{}

// RequiredHeadersRule requires each listed header.
type RequiredHeadersRule struct {
	Columns []string
}

// RecommendedHeadersRule warns about each missing listed header.
type RecommendedHeadersRule struct {
	Columns []string
}

// ValidHeadersRule warns about headers outside the listed set.
type ValidHeadersRule struct {
	Columns []string
}

// RequiredFieldRule requires a value in every row of a column.
type RequiredFieldRule struct {
	Column string
}

// CodeValueRule restricts a column to a set of codes.
type CodeValueRule struct {
	Column string
	Codes  []tabular.CodeValue
}

// NumericRule requires a column's values to be numbers.
type NumericRule struct {
	Column string
}

// RangeRule bounds a numeric column. Nil bounds are open.
type RangeRule struct {
	Column   string
	Min, Max *float64
}

// FormatRule requires a column's values to match a regular expression.
type FormatRule struct {
	Column   string
	Pattern  string
	Flags    string
	Expected string
}

// UniquenessRule requires the composite key over Columns to be unique.
type UniquenessRule struct {
	Columns []string
}

// ParentChildKeyMatchRule requires every child row to reference a parent row.
type ParentChildKeyMatchRule struct {
	Parent  string
	Child   string
	Columns []string
}

func (DuplicateHeadersRule) Kind() string    { return "file_duplicate_columns_validator" }
func (RequiredHeadersRule) Kind() string     { return "file_required_columns_validator" }
func (RecommendedHeadersRule) Kind() string  { return "file_recommended_columns_validator" }
func (ValidHeadersRule) Kind() string        { return "file_valid_columns_validator" }
func (UniquenessRule) Kind() string          { return "file_column_unique_validator" }
func (RequiredFieldRule) Kind() string       { return "column_required_validator" }
func (CodeValueRule) Kind() string           { return "column_code_validator" }
func (NumericRule) Kind() string             { return "column_numeric_validator" }
func (RangeRule) Kind() string               { return "column_range_validator" }
func (FormatRule) Kind() string              { return "column_format_validator" }
func (ParentChildKeyMatchRule) Kind() string { return "workbook_parent_child_key_match_validator" }

func (DuplicateHeadersRule) isRule()    {}
func (RequiredHeadersRule) isRule()     {}
func (RecommendedHeadersRule) isRule()  {}
func (ValidHeadersRule) isRule()        {}
func (UniquenessRule) isRule()          {}
func (RequiredFieldRule) isRule()       {}
func (CodeValueRule) isRule()           {}
func (NumericRule) isRule()             {}
func (RangeRule) isRule()               {}
func (FormatRule) isRule()              {}
func (ParentChildKeyMatchRule) isRule() {}

// Compile turns a worksheet rule into a validator. ParentChildKeyMatchRule
// spans worksheets and must go through CompileWorkbook instead.
func Compile(r Rule) (tabular.Validator, error) {
	switch r := r.(type) {
	case DuplicateHeadersRule:
		return tabular.DuplicateHeaders(), nil
	case RequiredHeadersRule:
		return tabular.RequiredHeaders(r.Columns), nil
	case RecommendedHeadersRule:
		return tabular.RecommendedHeaders(r.Columns), nil
	case ValidHeadersRule:
		return tabular.ValidHeaders(r.Columns), nil
	case UniquenessRule:
		return tabular.UniqueRows(r.Columns), nil
	case RequiredFieldRule:
		return tabular.RequiredField(r.Column), nil
	case CodeValueRule:
		return tabular.CodeValues(r.Column, r.Codes), nil
	case NumericRule:
		return tabular.NumericField(r.Column), nil
	case RangeRule:
		return tabular.RangeField(r.Column, r.Min, r.Max), nil
	case FormatRule:
		return tabular.FormatField(r.Column, r.Pattern, r.Flags, r.Expected)
	case ParentChildKeyMatchRule:
		return nil, fmt.Errorf("%s is a workbook rule", r.Kind())
	case nil:
		return nil, fmt.Errorf("nil rule")
	default:
		return nil, fmt.Errorf("unknown rule %T", r)
	}
}

// CompileWorkbook turns a cross-sheet rule into a workbook validator.
func CompileWorkbook(r ParentChildKeyMatchRule) tabular.WorkbookValidator {
	return tabular.ParentChildKeyMatch(r.Parent, r.Child, r.Columns)
}
