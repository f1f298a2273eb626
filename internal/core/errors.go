package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFileAccess marks a source file that could not be opened or read.
	ErrFileAccess = errors.New("file access")
	// ErrStructural marks a structured file whose layout is unusable.
	ErrStructural = errors.New("structural error")
	// ErrRowInvalid marks a single structured row that could not be converted.
	ErrRowInvalid = errors.New("invalid row")
)

// Reasons carried in StructuralError.Msg.
const (
	reasonMemberAbsent = "required member absent"
	reasonColumnAbsent = "required column absent from fields"
)

// FileError wraps an open or read failure on a source file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFileAccess, e.Path, e.Err)
}

// Is reports ErrFileAccess as well as the underlying error.
func (e *FileError) Is(target error) bool { return target == ErrFileAccess }

func (e *FileError) Unwrap() error { return e.Err }

// StructuralError reports a structured file that is missing a member or required column.
type StructuralError struct {
	Path    string
	Missing []string // Missing members or header columns
	Msg     string
}

func (e *StructuralError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(ErrStructural.Error())
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Missing) > 0 {
		b.WriteString(": missing ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	return b.String()
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// RowError reports a structured data row that was excluded from the result.
type RowError struct {
	Line  int    // 1-indexed position in the data array
	Field string // Column that failed, empty for whole-row problems
	Value string
	Msg   string
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s %d: %s", ErrRowInvalid, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s %d: %s %q: %s", ErrRowInvalid, e.Line, e.Field, e.Value, e.Msg)
}

func (e *RowError) Unwrap() error { return ErrRowInvalid }

func joinRowErrors(rows []*RowError) error {
	errs := make([]error, len(rows))
	for i, r := range rows {
		errs[i] = r
	}
	return errors.Join(errs...)
}
