// Package apperr 定义服务内的错误分类：校验、上游拉取、存储、未找到。
// 各层返回 *Error，HTTP 层根据 Kind 选择状态码和 error 字段。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别，同时作为响应中的 error 字段
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindUpstream   Kind = "UpstreamFetchError"
	KindStorage    Kind = "StorageError"
	KindNotFound   Kind = "NotFoundError"
	KindInternal   Kind = "InternalError"
)

// Error 带类别的错误
type Error struct {
	Kind    Kind
	Op      string // 出错的操作，如 "repository.SaveAll"
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation 调用方输入不合法，message 描述违反的规则
func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// Upstream 上游不可达、非 2xx 或响应无法解析
func Upstream(op string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Err: err}
}

// Storage 持久化失败
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// NotFound 记录不存在
func NotFound(resource string, id any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %v", resource, id)}
}

// KindOf 返回错误类别，未分类的错误视为 InternalError
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }
func IsUpstream(err error) bool   { return err != nil && KindOf(err) == KindUpstream }
func IsStorage(err error) bool    { return err != nil && KindOf(err) == KindStorage }
func IsNotFound(err error) bool   { return err != nil && KindOf(err) == KindNotFound }

// HTTPStatus 错误类别到 HTTP 状态码
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
