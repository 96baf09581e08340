package store

import "fmt"

// Code is a stable error code for a store failure mode.
type Code string

const (
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeCampaignNotFound   Code = "CAMPAIGN_NOT_FOUND"
	CodeDuplicateRequest   Code = "DUPLICATE_REQUEST"
	CodeConflict           Code = "CONFLICT"
	CodeInsufficientPoints Code = "INSUFFICIENT_POINTS"
	CodeNoTransaction      Code = "NO_TRANSACTION"
)

// Error is a typed store failure. The code is part of the contract; the
// message and cause are for humans and logs.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func NewError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same code, so errors.Is works against
// the sentinels below no matter how an instance was wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrUserNotFound       = &Error{Code: CodeUserNotFound, Message: "user not found"}
	ErrCampaignNotFound   = &Error{Code: CodeCampaignNotFound, Message: "campaign not found"}
	ErrDuplicateRequest   = &Error{Code: CodeDuplicateRequest, Message: "duplicate draw request"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflicting concurrent update"}
	ErrInsufficientPoints = &Error{Code: CodeInsufficientPoints, Message: "insufficient points"}
	ErrNoTransaction      = &Error{Code: CodeNoTransaction, Message: "operation requires a transaction started by RunInTx"}
)
