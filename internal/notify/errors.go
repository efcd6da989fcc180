package notify

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindBadRequest     Kind = "BadRequest"
	KindConflict       Kind = "Conflict"
	KindDispatchFailed Kind = "DispatchFailed"
	KindInternal       Kind = "Internal"
)

// Error 是通知流程中需要返回给调用方的失败。
// 身份降级、存储不可用、基线提交失败等可恢复的情况只记录日志，不会产生 Error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func badRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// KindOf 返回 err 的类型，非 *Error 一律视为 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus 把错误类型映射为响应状态码
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindDispatchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
