package core

// # Error Codes Reference
//
// User-facing messages carry a code that can be quoted to support staff.
//
// # Sheet Errors (SHT001-SHT099)
//
//	SHT001 - Duplicate name: A sheet or column with this name already exists
//	         Action: Choose a different name
//	         Sentinel: ErrDuplicateName
//
//	SHT002 - Invalid name: Name is empty or has surrounding spaces
//	         Action: Enter a name without leading or trailing spaces
//	         Sentinel: ErrInvalidName
//
// # Column Errors (TYP001, SET001)
//
//	TYP001 - Unknown type: The column type is not supported
//	         Action: Pick one of the listed column types
//	         Sentinel: ErrUnknownType
//
//	SET001 - Invalid settings: The column settings are not valid
//	         Action: Remove duplicate entries and check the column schema
//	         Sentinel: ErrInvalidSettings
//
// # Value Errors (VAL001-VAL099)
//
//	VAL001 - Invalid value: The value does not fit the column
//	         Action: Check the column type, range, and allowed values
//	         Sentinel: ErrInvalidValue
//
// # Reference Errors (REF001-REF099)
//
//	REF001 - Not found: The sheet, column or row does not exist
//	         Action: Refresh and try again
//	         Sentinel: ErrNotFound
//
//	REF002 - No active sheet: No sheet is open for editing
//	         Action: Create or select a sheet first
//	         Sentinel: ErrNoActiveSheet
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Malformed save file: The file could not be read as a workbook
//	          Action: Check that the file is a valid .gdb save file
//	          Sentinel: ErrMalformedSaveData
//
//	FILE002 - Save file not found: No save file with this name exists
//	          Action: Check the file name or list the available files
//	          Sentinel: ErrSaveFileNotFound
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Timeout: Storage operation timed out
//	         Action: Please try again
//	         Patterns: "context deadline exceeded", "timeout"
//
//	STO002 - Unavailable: Unable to reach the storage backend
//	         Action: Please try again in a few moments
//	         Patterns: "connection refused", "connection reset"
//
// # Capacity Errors (BSY001)
//
//	BSY001 - Busy: Too many imports or exports are running
//	         Action: Wait a moment and try again
//	         Sentinel: ErrTooManyJobs
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// Sentinels are matched with errors.Is before any pattern is tried, so a
// wrapped sentinel always wins over text that happens to match a pattern.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages is checked in order; the first errors.Is match wins.
var sentinelMessages = []sentinelMessage{
	{ErrDuplicateName, UserMessage{
		Message: "A sheet or column with this name already exists",
		Action:  "Choose a different name",
		Code:    "SHT001",
	}},
	{ErrInvalidName, UserMessage{
		Message: "Name is empty or has surrounding spaces",
		Action:  "Enter a name without leading or trailing spaces",
		Code:    "SHT002",
	}},
	{ErrUnknownType, UserMessage{
		Message: "The column type is not supported",
		Action:  "Pick one of the listed column types",
		Code:    "TYP001",
	}},
	{ErrInvalidSettings, UserMessage{
		Message: "The column settings are not valid",
		Action:  "Remove duplicate entries and check the column schema",
		Code:    "SET001",
	}},
	{ErrMalformedSaveData, UserMessage{
		Message: "The file could not be read as a workbook",
		Action:  "Check that the file is a valid .gdb save file",
		Code:    "FILE001",
	}},
	{ErrSaveFileNotFound, UserMessage{
		Message: "No save file with this name exists",
		Action:  "Check the file name or list the available files",
		Code:    "FILE002",
	}},
	{ErrInvalidValue, UserMessage{
		Message: "The value does not fit the column",
		Action:  "Check the column type, range, and allowed values",
		Code:    "VAL001",
	}},
	{ErrNotFound, UserMessage{
		Message: "The sheet, column or row does not exist",
		Action:  "Refresh and try again",
		Code:    "REF001",
	}},
	{ErrNoActiveSheet, UserMessage{
		Message: "No sheet is open for editing",
		Action:  "Create or select a sheet first",
		Code:    "REF002",
	}},
	{ErrTooManyJobs, UserMessage{
		Message: "Too many imports or exports are running",
		Action:  "Wait a moment and try again",
		Code:    "BSY001",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user
// messages for errors that come from outside the core, mostly storage.
var errorPatterns = []errorPattern{
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Storage operation timed out",
			Action:  "Please try again",
			Code:    "STO001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Storage operation timed out",
			Action:  "Please try again",
			Code:    "STO001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the storage backend",
			Action:  "Please try again in a few moments",
			Code:    "STO002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Unable to reach the storage backend",
			Action:  "Please try again in a few moments",
			Code:    "STO002",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := sheet.AddColumn("qty", TypeInt, nil)
//	msg := MapError(err)
//	// msg.Code == "SHT001" when "qty" already exists
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
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

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
