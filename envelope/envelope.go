//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

// Package envelope defines the uniform response shape returned by every
// engine operation: a success flag, a human-readable message, and an
// optional structured payload.
package envelope

import "fmt"

// Response is the universal result of a tool invocation. Every path
// through the execution engine returns exactly this shape, on success
// and on failure alike.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`

	// Tool and Parameters echo the offending input on malformed or
	// otherwise rejected tool calls. They are empty on normal responses.
	Tool       string         `json:"tool,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// OK builds a success response carrying the given payload.
func OK(message string, data any) *Response {
	return &Response{Success: true, Message: message, Data: data}
}

// Fail builds a failure response with a nil payload.
func Fail(message string) *Response {
	return &Response{Success: false, Message: message}
}

// Failf builds a failure response with a formatted message.
func Failf(format string, args ...any) *Response {
	return &Response{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Succeeded reports whether r is a non-nil success response.
func (r *Response) Succeeded() bool {
	return r != nil && r.Success
}
