package tabular

// Validator inspects a worksheet and records problems in its ValidationState.
// Validators never return errors for rule violations.
type Validator interface {
	Validate(w *Worksheet)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(w *Worksheet)

// Validate implements Validator.
func (f ValidatorFunc) Validate(w *Worksheet) { f(w) }

// WorkbookValidator inspects a whole workbook and may record problems in any
// of its worksheets.
type WorkbookValidator interface {
	ValidateWorkbook(wb *Workbook)
}

// WorkbookValidatorFunc adapts a function to the WorkbookValidator interface.
type WorkbookValidatorFunc func(wb *Workbook)

// ValidateWorkbook implements WorkbookValidator.
func (f WorkbookValidatorFunc) ValidateWorkbook(wb *Workbook) { f(wb) }
