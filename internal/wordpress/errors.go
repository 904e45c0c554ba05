// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a failed content source call.
type ErrorKind int

const (
	// KindNetwork covers DNS failures, refused connections, resets and timeouts.
	KindNetwork ErrorKind = iota + 1
	// KindMalformed means the source answered with something that is not the
	// expected JSON document.
	KindMalformed
	// KindStatus means the source answered with a non-success status and a
	// WordPress error body.
	KindStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// WordPress REST error codes with a meaning of their own.
const (
	codeInvalidPage = "rest_post_invalid_page_number"
)

var (
	// ErrNotFound is returned when a slug lookup matches no post.
	ErrNotFound = errors.New("wordpress: post not found")

	// ErrInvalidPage matches an *Error for a page beyond the last one.
	ErrInvalidPage = errors.New("wordpress: page number out of range")
)

// Error describes a failed call to the content source.
type Error struct {
	Op         string
	Kind       ErrorKind
	StatusCode int    // HTTP status, 0 for network errors
	Code       string // WordPress error code, e.g. rest_no_route
	Message    string
	Timeout    bool
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("wordpress: %s: %s (status %d): %s", e.Op, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("wordpress: %s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidPage) match the WordPress page error.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidPage && e.Code == codeInvalidPage
}

func networkError(op string, err error) *Error {
	e := &Error{Op: op, Kind: KindNetwork, Err: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		e.Timeout = true
		e.Message = "request timed out"
	}
	return e
}

func malformedError(op string, status int, err error) *Error {
	return &Error{
		Op:         op,
		Kind:       KindMalformed,
		StatusCode: status,
		Message:    "response is not valid JSON from a WordPress REST API",
		Err:        err,
	}
}

func statusError(op string, status int, code, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Op: op, Kind: KindStatus, StatusCode: status, Code: code, Message: message}
}
