package celt

import "fmt"

// Status is an engine status code. Zero is success; failures are negative.
type Status int

const (
	StatusOK            Status = 0
	StatusBadArg        Status = -1
	StatusInvalidMode   Status = -2
	StatusInternalError Status = -3
	StatusCorruptedData Status = -4
	StatusUnimplemented Status = -5
	StatusInvalidState  Status = -6
	StatusAllocFail     Status = -7
)

var statusText = [...]string{
	"success",
	"invalid argument",
	"invalid mode",
	"internal error",
	"corrupted stream",
	"request not implemented",
	"invalid state",
	"memory allocation has failed",
}

// StrError returns the diagnostic text for a status code.
func StrError(s Status) string {
	i := -int(s)
	if i < 0 || i >= len(statusText) {
		return "unknown error"
	}
	return statusText[i]
}

func (s Status) String() string {
	return StrError(s)
}

// Error is returned by every failing engine call.
type Error struct {
	Op     string
	Status Status
}

func (e *Error) Error() string {
	return fmt.Sprintf("celt: %s: %s", e.Op, StrError(e.Status))
}

func newError(op string, s Status) *Error {
	return &Error{Op: op, Status: s}
}
