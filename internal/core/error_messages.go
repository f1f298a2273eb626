package core

// error_messages.go maps extraction errors to user-facing messages with codes
// for support reference.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Source file not found
//	          Action: Check NEO_CSV_PATH / CAD_JSON_PATH
//	FILE002 - Source file unreadable
//	          Action: Check file permissions
//
// # Structure Errors (SCH001-SCH099)
//
//	SCH001 - Required column absent from the close-approach header
//	         Action: Ensure "fields" lists des, cd, dist and v_rel
//	SCH002 - Malformed close-approach document
//	         Action: Ensure the file is a JSON object with "fields" and "data"
//
// # Row Errors (ROW001-ROW099)
//
//	ROW001 - One or more close-approach rows were excluded
//	         Action: Review /api/rejected for the affected rows
//
// # Load Errors (LOAD001-LOAD099)
//
//	LOAD001 - No dataset loaded yet
//	          Action: Trigger POST /api/reload once the files are in place
//
// # Default Error (ERR000)
//
// Typed errors are matched with errors.Is first. Anything else falls back to
// case-insensitive substring patterns, first match wins.

import (
	"errors"
	"io/fs"
	"strings"
)

// ErrNotLoaded is returned when no catalog has been loaded yet.
var ErrNotLoaded = errors.New("dataset not loaded")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileNotFound = UserMessage{
		Message: "Source file not found",
		Action:  "Check NEO_CSV_PATH and CAD_JSON_PATH",
		Code:    "FILE001",
	}
	msgFileUnreadable = UserMessage{
		Message: "Source file could not be read",
		Action:  "Check file permissions and try again",
		Code:    "FILE002",
	}
	msgMissingColumn = UserMessage{
		Message: "Required column is missing from the close-approach header",
		Action:  "Ensure \"fields\" lists every required column",
		Code:    "SCH001",
	}
	msgMalformedDocument = UserMessage{
		Message: "Close-approach file is not a valid document",
		Action:  "Ensure the file is a JSON object with \"fields\" and \"data\" members",
		Code:    "SCH002",
	}
	msgRowsRejected = UserMessage{
		Message: "Some close-approach rows were excluded",
		Action:  "Review the rejected rows list",
		Code:    "ROW001",
	}
	msgNotLoaded = UserMessage{
		Message: "No dataset has been loaded yet",
		Action:  "Trigger a reload once the source files are in place",
		Code:    "LOAD001",
	}
	msgUnknown = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or check the server logs",
		Code:    "ERR000",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that lost their type on the way, e.g. through fmt.Errorf("%v").
var errorPatterns = []errorPattern{
	{pattern: "no such file", msg: msgFileNotFound},
	{pattern: "permission denied", msg: msgFileUnreadable},
	{pattern: "required column absent", msg: msgMissingColumn},
	{pattern: "invalid json", msg: msgMalformedDocument},
	{pattern: "invalid row", msg: msgRowsRejected},
	{pattern: "not loaded", msg: msgNotLoaded},
}

// MapError converts an error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return msgUnknown
	}

	switch {
	case errors.Is(err, ErrNotLoaded):
		return msgNotLoaded
	case errors.Is(err, fs.ErrNotExist):
		return msgFileNotFound
	case errors.Is(err, ErrFileAccess):
		return msgFileUnreadable
	case errors.Is(err, ErrRowInvalid):
		return msgRowsRejected
	}

	var se *StructuralError
	if errors.As(err, &se) {
		if se.Msg == reasonColumnAbsent {
			return msgMissingColumn
		}
		return msgMalformedDocument
	}

	lower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}
	return msgUnknown
}
