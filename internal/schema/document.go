package schema

// document.go defines the on-disk rule set for one kind of submission.
//
// Documents are YAML (JSON is accepted as a YAML subset) with snake_case keys.
// Every list entry names exactly one validator, keyed by the validator's
// configuration key:
//
//	files:
//	  - name: event
//	    validations:
//	      - file_required_columns_validator: {required_columns: [eventID]}
//	    columns:
//	      - name: eventDate
//	        validations:
//	          - column_format_validator: {reg_exp: '^\d{4}', expected_format: 'Year first'}

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/SurveyIntake/internal/tabular"
)

// Document is a complete submission schema.
type Document struct {
	Name                string               `yaml:"name" json:"name" validate:"required"`
	Label               string               `yaml:"label,omitempty" json:"label,omitempty"`
	Kind                Kind                 `yaml:"kind,omitempty" json:"kind,omitempty" validate:"omitempty,oneof=dwca xlsx"`
	Description         string               `yaml:"description,omitempty" json:"description,omitempty"`
	Validations         []SubmissionEntry    `yaml:"validations,omitempty" json:"validations,omitempty" validate:"dive"`
	Files               []FileSchema         `yaml:"files" json:"files" validate:"dive"`
	WorkbookValidations []WorkbookValidation `yaml:"workbook_validations,omitempty" json:"workbook_validations,omitempty" validate:"dive"`
}

// SubmissionEntry is one check on the uploaded file as a whole.
type SubmissionEntry struct {
	RequiredFiles *RequiredFilesConfig `yaml:"submission_required_files_validator,omitempty" json:"submission_required_files_validator,omitempty"`
	MimeType      *MimeTypeConfig      `yaml:"mimetype_validator,omitempty" json:"mimetype_validator,omitempty"`
}

// RequiredFilesConfig lists worksheets (or archive document classes) that
// must be present.
type RequiredFilesConfig struct {
	RequiredFiles []string `yaml:"required_files" json:"required_files" validate:"dive,required"`
}

// MimeTypeConfig lists regular expressions the upload's MIME type must match.
type MimeTypeConfig struct {
	RegExps []string `yaml:"reg_exps" json:"reg_exps" validate:"min=1,dive,required"`
}

// FileSchema holds the rules for one worksheet or archive document class.
type FileSchema struct {
	Name        string         `yaml:"name" json:"name" validate:"required"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Validations []FileEntry    `yaml:"validations,omitempty" json:"validations,omitempty" validate:"dive"`
	Columns     []ColumnSchema `yaml:"columns,omitempty" json:"columns,omitempty" validate:"dive"`
}

// FileEntry is one header-level or whole-sheet rule.
type FileEntry struct {
	DuplicateColumns   *struct{}                 `yaml:"file_duplicate_columns_validator,omitempty" json:"file_duplicate_columns_validator,omitempty"`
	RequiredColumns    *RequiredColumnsConfig    `yaml:"file_required_columns_validator,omitempty" json:"file_required_columns_validator,omitempty"`
	RecommendedColumns *RecommendedColumnsConfig `yaml:"file_recommended_columns_validator,omitempty" json:"file_recommended_columns_validator,omitempty"`
	ValidColumns       *ValidColumnsConfig       `yaml:"file_valid_columns_validator,omitempty" json:"file_valid_columns_validator,omitempty"`
	UniqueColumns      *UniqueColumnsConfig      `yaml:"file_column_unique_validator,omitempty" json:"file_column_unique_validator,omitempty"`
}

type RequiredColumnsConfig struct {
	RequiredColumns []string `yaml:"required_columns" json:"required_columns" validate:"dive,required"`
}

type RecommendedColumnsConfig struct {
	RecommendedColumns []string `yaml:"recommended_columns" json:"recommended_columns" validate:"dive,required"`
}

type ValidColumnsConfig struct {
	ValidColumns []string `yaml:"valid_columns" json:"valid_columns" validate:"dive,required"`
}

type UniqueColumnsConfig struct {
	ColumnNames []string `yaml:"column_names" json:"column_names" validate:"min=1,dive,required"`
}

// ColumnSchema holds the rules for one column.
type ColumnSchema struct {
	Name        string        `yaml:"name" json:"name" validate:"required"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Validations []ColumnEntry `yaml:"validations,omitempty" json:"validations,omitempty" validate:"dive"`
}

// ColumnEntry is one rule applied to every value of a column.
type ColumnEntry struct {
	Required *struct{}     `yaml:"column_required_validator,omitempty" json:"column_required_validator,omitempty"`
	Numeric  *struct{}     `yaml:"column_numeric_validator,omitempty" json:"column_numeric_validator,omitempty"`
	Range    *RangeConfig  `yaml:"column_range_validator,omitempty" json:"column_range_validator,omitempty"`
	Format   *FormatConfig `yaml:"column_format_validator,omitempty" json:"column_format_validator,omitempty"`
	Code     *CodeConfig   `yaml:"column_code_validator,omitempty" json:"column_code_validator,omitempty"`
}

type RangeConfig struct {
	MinValue *float64 `yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue *float64 `yaml:"max_value,omitempty" json:"max_value,omitempty"`
}

type FormatConfig struct {
	RegExp         string `yaml:"reg_exp" json:"reg_exp"`
	RegExpFlags    string `yaml:"reg_exp_flags,omitempty" json:"reg_exp_flags,omitempty"`
	ExpectedFormat string `yaml:"expected_format,omitempty" json:"expected_format,omitempty"`
}

type CodeConfig struct {
	AllowedCodeValues []CodeValueConfig `yaml:"allowed_code_values" json:"allowed_code_values" validate:"required,dive"`
}

type CodeValueConfig struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// WorkbookValidation is one cross-sheet rule.
type WorkbookValidation struct {
	ParentChildKeyMatch *ParentChildKeyMatchConfig `yaml:"workbook_parent_child_key_match_validator,omitempty" json:"workbook_parent_child_key_match_validator,omitempty"`
}

type ParentChildKeyMatchConfig struct {
	ParentWorksheetName string   `yaml:"parent_worksheet_name" json:"parent_worksheet_name" validate:"required"`
	ChildWorksheetName  string   `yaml:"child_worksheet_name" json:"child_worksheet_name" validate:"required"`
	ColumnNames         []string `yaml:"column_names" json:"column_names" validate:"dive,required"`
}

// File returns the schema for a worksheet, matching the name
// case-insensitively.
func (d *Document) File(name string) (*FileSchema, bool) {
	for i := range d.Files {
		if strings.EqualFold(d.Files[i].Name, name) {
			return &d.Files[i], true
		}
	}
	return nil, false
}

// Rules returns the worksheet's rules in order: sheet-level entries first,
// then each column's entries.
func (f *FileSchema) Rules() ([]Rule, error) {
	var rules []Rule

	for i, e := range f.Validations {
		r, err := e.rule()
		if err != nil {
			return nil, fmt.Errorf("file %q validation %d: %w", f.Name, i, err)
		}
		rules = append(rules, r)
	}

	for _, col := range f.Columns {
		for i, e := range col.Validations {
			r, err := e.rule(col.Name)
			if err != nil {
				return nil, fmt.Errorf("file %q column %q validation %d: %w", f.Name, col.Name, i, err)
			}
			rules = append(rules, r)
		}
	}

	return rules, nil
}

func (e FileEntry) rule() (Rule, error) {
	var rules []Rule
	if e.DuplicateColumns != nil {
		rules = append(rules, DuplicateHeadersRule{})
	}
	if e.RequiredColumns != nil {
		rules = append(rules, RequiredHeadersRule{Columns: e.RequiredColumns.RequiredColumns})
	}
	if e.RecommendedColumns != nil {
		rules = append(rules, RecommendedHeadersRule{Columns: e.RecommendedColumns.RecommendedColumns})
	}
	if e.ValidColumns != nil {
		rules = append(rules, ValidHeadersRule{Columns: e.ValidColumns.ValidColumns})
	}
	if e.UniqueColumns != nil {
		rules = append(rules, UniquenessRule{Columns: e.UniqueColumns.ColumnNames})
	}
	return exactlyOne(rules)
}

func (e ColumnEntry) rule(column string) (Rule, error) {
	var rules []Rule
	if e.Required != nil {
		rules = append(rules, RequiredFieldRule{Column: column})
	}
	if e.Numeric != nil {
		rules = append(rules, NumericRule{Column: column})
	}
	if e.Range != nil {
		rules = append(rules, RangeRule{Column: column, Min: e.Range.MinValue, Max: e.Range.MaxValue})
	}
	if e.Format != nil {
		rules = append(rules, FormatRule{
			Column:   column,
			Pattern:  e.Format.RegExp,
			Flags:    e.Format.RegExpFlags,
			Expected: e.Format.ExpectedFormat,
		})
	}
	if e.Code != nil {
		codes := make([]tabular.CodeValue, len(e.Code.AllowedCodeValues))
		for i, c := range e.Code.AllowedCodeValues {
			codes[i] = tabular.CodeValue{Name: c.Name, Description: c.Description}
		}
		rules = append(rules, CodeValueRule{Column: column, Codes: codes})
	}
	return exactlyOne(rules)
}

func exactlyOne(rules []Rule) (Rule, error) {
	switch len(rules) {
	case 1:
		return rules[0], nil
	case 0:
		return nil, fmt.Errorf("no validator configured")
	default:
		kinds := make([]string, len(rules))
		for i, r := range rules {
			kinds[i] = r.Kind()
		}
		return nil, fmt.Errorf("entry configures more than one validator: %s", strings.Join(kinds, ", "))
	}
}

// WorkbookRules returns the cross-sheet rules in order.
func (d *Document) WorkbookRules() ([]ParentChildKeyMatchRule, error) {
	rules := make([]ParentChildKeyMatchRule, 0, len(d.WorkbookValidations))
	for i, wv := range d.WorkbookValidations {
		if wv.ParentChildKeyMatch == nil {
			return nil, fmt.Errorf("workbook validation %d: no validator configured", i)
		}
		c := wv.ParentChildKeyMatch
		rules = append(rules, ParentChildKeyMatchRule{
			Parent:  c.ParentWorksheetName,
			Child:   c.ChildWorksheetName,
			Columns: c.ColumnNames,
		})
	}
	return rules, nil
}
