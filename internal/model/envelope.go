package model

import "time"

// Envelope is the body of every api response.
type Envelope[T any] struct {
	Success    bool       `json:"success"`
	Count      *int       `json:"count,omitempty"`
	Data       T          `json:"data"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
	Fields     []string   `json:"fields,omitempty"`
	ExportDate *time.Time `json:"exportDate,omitempty"`

	// http status seen by the client, 0 when the request never got an answer
	StatusCode int `json:"-"`
}

// Failure is the body of an error response. It has no data member.
type Failure struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: data}
}

func List[T any](items []T) Envelope[[]T] {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return Envelope[[]T]{Success: true, Count: &n, Data: items}
}

func Fail[T any](status int, message, err string) Envelope[T] {
	return Envelope[T]{Success: false, Message: message, Error: err, StatusCode: status}
}

// Transport reports whether the failure happened before any response arrived.
func (e Envelope[T]) Transport() bool {
	return !e.Success && e.StatusCode == 0
}
