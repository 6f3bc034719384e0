package sdirx

import "fmt"

// Error codes.
const (
	ErrCodeInvalidParam = "INVALID_PARAM"
)

// Error represents a receiver error with a code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// ErrInvalidParam is returned for an unrecognized handler type or a nil
// callback or reference.
var ErrInvalidParam = &Error{Code: ErrCodeInvalidParam, Message: "invalid parameter"}

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
