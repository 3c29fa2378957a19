package util

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden 记录存在但不属于当前用户，对外仍以 "not found" 表述
	ErrForbidden   = errors.New("not found or unauthorized")
	ErrNotEligible = errors.New("course not completed yet")
	ErrConflict    = errors.New("conflict")
)

// ValidationError 缺失或非法的输入字段
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if len(parts) == 0 {
		return "invalid input"
	}
	return strings.Join(parts, "; ")
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func MissingFields(fields ...string) *ValidationError {
	return &ValidationError{Missing: fields}
}

// ProviderError 外部服务（身份、支付、存储、对话）调用失败
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func WrapProvider(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// kindError 自定义提示语，同时可用 errors.Is 判断类别
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// NotFoundErr 例如 NotFoundErr("Course") -> "Course not found"
func NotFoundErr(resource string) error {
	return &kindError{msg: resource + " not found", kind: ErrNotFound}
}

// ForbiddenErr 与 NotFound 使用相同措辞，避免泄露记录是否存在
func ForbiddenErr(resource string) error {
	return &kindError{msg: resource + " not found or unauthorized", kind: ErrForbidden}
}

func ConflictErr(msg string) error {
	return &kindError{msg: msg, kind: ErrConflict}
}
