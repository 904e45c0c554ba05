// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/olegiv/wpbridge/internal/model"
	"github.com/olegiv/wpbridge/internal/wordpress"
)

// Kind is the coarse result of a pipeline call.
type Kind string

const (
	KindSuccess  Kind = "success"
	KindEmpty    Kind = "empty"
	KindNotFound Kind = "not_found"
	KindError    Kind = "error"
)

// Class tells operators what kind of remediation a failure needs.
type Class string

const (
	// ClassNetwork: unreachable, DNS, timeout. Retrying may help.
	ClassNetwork Class = "network"
	// ClassMalformed: the source answered with something other than the
	// expected JSON, usually a permalink or REST base misconfiguration.
	ClassMalformed Class = "malformed"
	// ClassUpstream: the source answered with a non-success status.
	ClassUpstream Class = "upstream"
	// ClassConfig: no usable source URL is configured.
	ClassConfig Class = "config"
	// ClassInvalid: the request itself was rejected before any I/O.
	ClassInvalid Class = "invalid"
)

// MalformedHint is shown with malformed-response failures.
const MalformedHint = "The blog source returned HTML or an unexpected document instead of REST JSON. " +
	"Check that the source URL ends with /wp-json/wp/v2 and that WordPress permalinks are not set to \"Plain\"."

// Failure describes why a pipeline call produced no data.
type Failure struct {
	Class      Class  `json:"class"`
	Message    string `json:"message"`
	Hint       string `json:"hint,omitempty"`
	Timeout    bool   `json:"timeout,omitempty"`
	Retryable  bool   `json:"retryable"`
	StatusCode int    `json:"source_status,omitempty"`
	Err        error  `json:"-"`
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Class, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Class, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Outcome is the typed result every pipeline call returns. Content source
// errors never escape as raw errors; they arrive as Kind == KindError with
// a classified Failure.
type Outcome[T any] struct {
	Kind       Kind
	Value      T
	Pagination *model.Pagination
	// OutOfRange marks an empty list caused by a page beyond the last one.
	OutOfRange bool
	Failure    *Failure
}

// OK reports whether the outcome carries a value.
func (o Outcome[T]) OK() bool {
	return o.Kind == KindSuccess
}

func success[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: KindSuccess, Value: v}
}

func empty[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: KindEmpty, Value: v}
}

func notFound[T any]() Outcome[T] {
	return Outcome[T]{Kind: KindNotFound}
}

func failed[T any](f *Failure) Outcome[T] {
	return Outcome[T]{Kind: KindError, Failure: f}
}

// Classify converts a content source error into a Failure.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	var wpErr *wordpress.Error
	if errors.As(err, &wpErr) {
		switch wpErr.Kind {
		case wordpress.KindNetwork:
			if errors.Is(err, context.Canceled) {
				return &Failure{Class: ClassNetwork, Message: "The request was canceled.", Retryable: true, Err: err}
			}
			if wpErr.Timeout {
				return &Failure{Class: ClassNetwork, Message: "The blog source did not respond in time.",
					Timeout: true, Retryable: true, Err: err}
			}
			return &Failure{Class: ClassNetwork, Message: "The blog source could not be reached.", Retryable: true, Err: err}
		case wordpress.KindMalformed:
			return &Failure{Class: ClassMalformed, Message: "The blog source returned a malformed response.",
				Hint: MalformedHint, StatusCode: wpErr.StatusCode, Err: err}
		case wordpress.KindStatus:
			return &Failure{
				Class:      ClassUpstream,
				Message:    fmt.Sprintf("The blog source answered with status %d: %s", wpErr.StatusCode, wpErr.Message),
				StatusCode: wpErr.StatusCode,
				Retryable:  wpErr.StatusCode >= 500 || wpErr.StatusCode == http.StatusTooManyRequests,
				Err:        err,
			}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Class: ClassNetwork, Message: "The blog source did not respond in time.",
			Timeout: true, Retryable: true, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Failure{Class: ClassNetwork, Message: "The request was canceled.", Retryable: true, Err: err}
	}
	return &Failure{Class: ClassUpstream, Message: "The blog source request failed.", Err: err}
}
