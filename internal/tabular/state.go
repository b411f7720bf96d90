package tabular

import "sync"

// ErrorCode identifies a validation-failure category. The string values are
// shared verbatim with the submission message-type table.
type ErrorCode string

const (
	DuplicateHeader          ErrorCode = "DUPLICATE_HEADER"
	UnknownHeader            ErrorCode = "UNKNOWN_HEADER"
	MissingRequiredHeader    ErrorCode = "MISSING_REQUIRED_HEADER"
	MissingRecommendedHeader ErrorCode = "MISSING_RECOMMENDED_HEADER"
	MissingRequiredField     ErrorCode = "MISSING_REQUIRED_FIELD"
	OutOfRange               ErrorCode = "OUT_OF_RANGE"
	InvalidValue             ErrorCode = "INVALID_VALUE"
	UnexpectedFormat         ErrorCode = "UNEXPECTED_FORMAT"
	NonUniqueKey             ErrorCode = "NON_UNIQUE_KEY"
	DanglingParentChildKey   ErrorCode = "DANGLING_PARENT_CHILD_KEY"
)

// ErrorCodes lists every code in declaration order.
var ErrorCodes = []ErrorCode{
	DuplicateHeader,
	UnknownHeader,
	MissingRequiredHeader,
	MissingRecommendedHeader,
	MissingRequiredField,
	OutOfRange,
	InvalidValue,
	UnexpectedFormat,
	NonUniqueKey,
	DanglingParentChildKey,
}

// IsWarning reports whether the code is only ever raised as a warning.
func (c ErrorCode) IsWarning() bool {
	return c == MissingRecommendedHeader || c == UnknownHeader
}

// HeaderError is a problem with a header cell.
type HeaderError struct {
	ErrorCode ErrorCode `json:"errorCode"`
	Message   string    `json:"message"`
	Col       string    `json:"col"`
}

// RowError is a problem with one cell of a data row.
type RowError struct {
	ErrorCode ErrorCode `json:"errorCode"`
	Message   string    `json:"message"`
	Col       string    `json:"col"`
	Row       int       `json:"row"`
}

// KeyError is a problem spanning several rows and columns.
type KeyError struct {
	ErrorCode ErrorCode `json:"errorCode"`
	Message   string    `json:"message"`
	ColNames  []string  `json:"colNames"`
	Rows      []int     `json:"rows"`
}

// Snapshot is an immutable copy of a ValidationState.
type Snapshot struct {
	FileName     string        `json:"fileName"`
	FileErrors   []string      `json:"fileErrors"`
	HeaderErrors []HeaderError `json:"headerErrors"`
	RowErrors    []RowError    `json:"rowErrors"`
	KeyErrors    []KeyError    `json:"keyErrors"`
	IsValid      bool          `json:"isValid"`
}

// ErrorCount returns the number of recorded problems, warnings included.
func (s Snapshot) ErrorCount() int {
	return len(s.FileErrors) + len(s.HeaderErrors) + len(s.RowErrors) + len(s.KeyErrors)
}

// ValidationState accumulates the problems found in one worksheet (or one
// uploaded file). Lists only grow. IsValid starts true and is cleared by the
// first non-empty Add*Errors call; warnings never clear it.
//
// All methods are safe for concurrent use.
type ValidationState struct {
	mu           sync.Mutex
	fileName     string
	fileErrors   []string
	headerErrors []HeaderError
	rowErrors    []RowError
	keyErrors    []KeyError
	isValid      bool
}

// NewValidationState returns an empty, valid state.
func NewValidationState(fileName string) *ValidationState {
	return &ValidationState{fileName: fileName, isValid: true}
}

// AddFileErrors records file-level errors.
func (s *ValidationState) AddFileErrors(errs ...string) {
	if len(errs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileErrors = append(s.fileErrors, errs...)
	s.isValid = false
}

// AddHeaderErrors records header errors.
func (s *ValidationState) AddHeaderErrors(errs ...HeaderError) {
	if len(errs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headerErrors = append(s.headerErrors, errs...)
	s.isValid = false
}

// AddHeaderWarnings records header warnings without affecting validity.
func (s *ValidationState) AddHeaderWarnings(warns ...HeaderError) {
	if len(warns) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headerErrors = append(s.headerErrors, warns...)
}

// AddRowErrors records row errors.
func (s *ValidationState) AddRowErrors(errs ...RowError) {
	if len(errs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowErrors = append(s.rowErrors, errs...)
	s.isValid = false
}

// AddKeyErrors records key errors.
func (s *ValidationState) AddKeyErrors(errs ...KeyError) {
	if len(errs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyErrors = append(s.keyErrors, errs...)
	s.isValid = false
}

// IsValid reports whether no error has been recorded.
func (s *ValidationState) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isValid
}

// Snapshot returns a deep copy of the current state.
func (s *ValidationState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyErrors := make([]KeyError, len(s.keyErrors))
	for i, ke := range s.keyErrors {
		keyErrors[i] = KeyError{
			ErrorCode: ke.ErrorCode,
			Message:   ke.Message,
			ColNames:  append([]string{}, ke.ColNames...),
			Rows:      append([]int{}, ke.Rows...),
		}
	}

	return Snapshot{
		FileName:     s.fileName,
		FileErrors:   append([]string{}, s.fileErrors...),
		HeaderErrors: append([]HeaderError{}, s.headerErrors...),
		RowErrors:    append([]RowError{}, s.rowErrors...),
		KeyErrors:    keyErrors,
		IsValid:      s.isValid,
	}
}
