package apperr

import (
	"context"
	"errors"
	"net"
)

// Type - error kind classification
type Type string

const (
	TypeValidation Type = "VALIDATION"
	TypeAuth       Type = "AUTH"
	TypeQuota      Type = "QUOTA"
	TypeAPITimeout Type = "API_TIMEOUT"
	TypeAPIError   Type = "API_ERROR"
	TypeDBError    Type = "DB_ERROR"
	TypeNetwork    Type = "NETWORK"
	TypeUnknown    Type = "UNKNOWN"
)

// Messages - user-facing messages per error kind (Chinese)
var Messages = map[Type]string{
	TypeValidation: "输入验证失败",
	TypeAuth:       "认证失败，请重新登录",
	TypeQuota:      "今日使用次数已达上限",
	TypeAPITimeout: "服务响应超时，请稍后重试",
	TypeAPIError:   "服务暂时不可用，请稍后重试",
	TypeDBError:    "数据保存失败",
	TypeNetwork:    "网络连接失败，请检查网络",
	TypeUnknown:    "发生未知错误，请稍后重试",
}

// Error - typed application error carrying the kind, a user-facing
// message and the wrapped cause.
type Error struct {
	Type        Type
	UserMessage string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Type) + ": " + e.Err.Error()
	}
	return string(e.Type) + ": " + e.UserMessage
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New - error of the given kind with the default message
func New(t Type) *Error {
	return &Error{Type: t, UserMessage: Messages[t]}
}

// NewMessage - error of the given kind with a custom user message
func NewMessage(t Type, message string) *Error {
	return &Error{Type: t, UserMessage: message}
}

// Wrap - error of the given kind wrapping a cause
func Wrap(t Type, err error) *Error {
	return &Error{Type: t, UserMessage: Messages[t], Err: err}
}

// TypeOf - kind of an error, TypeUnknown if it carries none
func TypeOf(err error) Type {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return TypeUnknown
}

// Message - map any error to a user-facing message. Raw provider and
// storage errors are never shown verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.UserMessage
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Messages[TypeAPITimeout]
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Messages[TypeAPITimeout]
		}
		return Messages[TypeNetwork]
	}

	return Messages[TypeUnknown]
}
