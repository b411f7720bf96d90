package submission

import (
	"sort"
	"strings"

	"github.com/JonMunkholm/SurveyIntake/internal/tabular"
)

// Class separates blocking errors from advisory warnings.
type Class string

const (
	ClassError   Class = "Error"
	ClassWarning Class = "Warning"
)

// Message types for file-level errors. Header, row and key messages use the
// engine's error code as their type.
const (
	TypeMissingRequiredFile = "MISSING_REQUIRED_FILE"
	TypeInvalidMimetype     = "INVALID_MIMETYPE"
	TypeFileError           = "FILE_ERROR"
)

// Status is the outcome of validating a submission.
type Status string

const (
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

// Message is one flattened validation finding, ready for display or storage.
type Message struct {
	Type     string `json:"type"`
	Class    Class  `json:"class"`
	FileName string `json:"fileName"`
	Message  string `json:"message"`
	Col      string `json:"col,omitempty"`
	Row      int    `json:"row,omitempty"`
	Rows     []int  `json:"rows,omitempty"`
}

// Flatten turns snapshots into messages. The submission snapshot comes first,
// then worksheets in name order. Within a snapshot the order is file, header,
// row and key errors, each in the order they were recorded.
func Flatten(submission tabular.Snapshot, worksheets map[string]tabular.Snapshot) []Message {
	msgs := flattenSnapshot(nil, submission)

	names := make([]string, 0, len(worksheets))
	for name := range worksheets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		msgs = flattenSnapshot(msgs, worksheets[name])
	}
	return msgs
}

func flattenSnapshot(msgs []Message, s tabular.Snapshot) []Message {
	for _, e := range s.FileErrors {
		msgs = append(msgs, Message{
			Type:     fileErrorType(e),
			Class:    ClassError,
			FileName: s.FileName,
			Message:  e,
		})
	}
	for _, e := range s.HeaderErrors {
		msgs = append(msgs, Message{
			Type:     string(e.ErrorCode),
			Class:    classOf(e.ErrorCode),
			FileName: s.FileName,
			Message:  e.Message,
			Col:      e.Col,
		})
	}
	for _, e := range s.RowErrors {
		msgs = append(msgs, Message{
			Type:     string(e.ErrorCode),
			Class:    classOf(e.ErrorCode),
			FileName: s.FileName,
			Message:  e.Message,
			Col:      e.Col,
			Row:      e.Row,
		})
	}
	for _, e := range s.KeyErrors {
		msgs = append(msgs, Message{
			Type:     string(e.ErrorCode),
			Class:    classOf(e.ErrorCode),
			FileName: s.FileName,
			Message:  e.Message,
			Col:      strings.Join(e.ColNames, ", "),
			Rows:     append([]int(nil), e.Rows...),
		})
	}
	return msgs
}

func classOf(code tabular.ErrorCode) Class {
	if code.IsWarning() {
		return ClassWarning
	}
	return ClassError
}

func fileErrorType(msg string) string {
	switch {
	case strings.HasPrefix(msg, "Missing required file"):
		return TypeMissingRequiredFile
	case strings.HasPrefix(msg, "File mime type is invalid"):
		return TypeInvalidMimetype
	default:
		return TypeFileError
	}
}

// StatusOf returns Accepted when every snapshot is valid.
func StatusOf(submission tabular.Snapshot, worksheets map[string]tabular.Snapshot) Status {
	if !submission.IsValid {
		return StatusRejected
	}
	for _, s := range worksheets {
		if !s.IsValid {
			return StatusRejected
		}
	}
	return StatusAccepted
}

// Counts returns the number of error and warning messages.
func Counts(msgs []Message) (errs, warnings int) {
	for _, m := range msgs {
		if m.Class == ClassWarning {
			warnings++
		} else {
			errs++
		}
	}
	return errs, warnings
}
