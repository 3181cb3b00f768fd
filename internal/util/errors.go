package util

import (
	"errors"
	"fmt"
)

var (
	ErrStudentNotFound        = errors.New("student not found")
	ErrInterventionNotFound   = errors.New("intervention not found")
	ErrOpenInterventionExists = errors.New("student already has an open intervention")
	ErrNotifierDisabled       = errors.New("notification destination not configured")
)

// ErrorKind 错误类型
type ErrorKind string

const (
	KindValidation ErrorKind = "VALIDATION_ERROR"
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindStore      ErrorKind = "STORE_ERROR"
	KindDispatch   ErrorKind = "DISPATCH_ERROR"
)

// AppError 带错误类型的业务错误，由接口层映射为状态码
type AppError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ValidationError 参数校验错误
func ValidationError(format string, args ...interface{}) error {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError 资源不存在错误
func NotFoundError(cause error, format string, args ...interface{}) error {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// StoreError 包装存储层错误，err 为 nil 时返回 nil
func StoreError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return &AppError{Kind: KindStore, Message: message, Cause: err}
}

// DispatchError 通知发送错误
func DispatchError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Kind: KindDispatch, Message: message, Cause: err}
}

// KindOf 返回错误链中第一个 AppError 的类型
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
