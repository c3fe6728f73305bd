package httpapi

import "rentalhub/internal/service"

// Result JSON envelope of every /api response.
// - code: ResultSuccess on success, ResultError otherwise
// - type: 'success' | 'error'
// - errors: field -> messages, only on validation / duplicate failures
type Result[T any] struct {
	Code    int                 `json:"code"`
	Type    string              `json:"type"`
	Message string              `json:"message"`
	Result  T                   `json:"result"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

// FailWith carries the per-field messages of err (if any).
func FailWith(err *service.Error) Result[any] {
	r := Fail(err.Message)
	if len(err.Fields) > 0 {
		r.Errors = err.Fields
	}
	return r
}

// PageResult one page of a list endpoint.
type PageResult[T any] struct {
	Count int `json:"count"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Items []T `json:"items"`
}

func pageOf[T any](l *service.ListResult[T]) PageResult[T] {
	items := l.Items
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{Count: l.Total, Page: l.Page.Number, Size: l.Page.Size, Items: items}
}
