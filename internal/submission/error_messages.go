package submission

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Codes are grouped by category:
//
//	SCH001-SCH099    schema lookup and schema documents
//	FILE001-FILE099  uploaded file handling
//	SUB001-SUB099    submission processing
//	RATE001          request throttling
//	DB001-DB099      persistence
//	ERR000           fallback when nothing matches
//
// Patterns are matched case-insensitively with strings.Contains. The first
// matching pattern wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Schema errors
	{
		pattern: "unknown schema",
		msg: UserMessage{
			Message: "The requested submission type is not configured",
			Action:  "Check the list of available schemas and try again",
			Code:    "SCH001",
		},
	},
	{
		pattern: "invalid schema document",
		msg: UserMessage{
			Message: "The validation rules for this submission type are invalid",
			Action:  "Contact support to have the rule set corrected",
			Code:    "SCH002",
		},
	},

	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the submission into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no recognized data files",
		msg: UserMessage{
			Message: "The archive does not contain any recognized data files",
			Action:  "Include event.txt and occurrence.txt at minimum",
			Code:    "FILE003",
		},
	},
	{
		pattern: "more than one file for a document class",
		msg: UserMessage{
			Message: "The archive contains the same data file twice",
			Action:  "Keep a single file for each data class",
			Code:    "FILE004",
		},
	},
	{
		pattern: "unsupported file",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Upload an .xlsx template or a zipped Darwin Core Archive",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE005",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with data rows",
			Code:    "FILE006",
		},
	},

	// Submission errors
	{
		pattern: "too many concurrent submissions",
		msg: UserMessage{
			Message: "System is busy validating other submissions",
			Action:  "Please wait a moment and try again",
			Code:    "SUB001",
		},
	},
	{
		pattern: "submission not found",
		msg: UserMessage{
			Message: "Submission not found",
			Action:  "Verify the submission ID is correct",
			Code:    "SUB002",
		},
	},
	{
		pattern: "invalid submission id",
		msg: UserMessage{
			Message: "The submission ID is not valid",
			Action:  "Use the submissionId returned by the validate endpoint",
			Code:    "SUB006",
		},
	},
	{
		pattern: "persistence disabled",
		msg: UserMessage{
			Message: "Submission history is not available on this server",
			Action:  "Keep the validation response returned at upload time",
			Code:    "SUB003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "SUB004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "SUB005",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},

	// Database errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB004",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000). Support staff
// should check application logs for the original technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("lookup: %w", schema.ErrUnknownSchema))
//	// msg.Code == "SCH001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
