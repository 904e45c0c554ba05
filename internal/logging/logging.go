// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging builds the application's slog handlers and the
// EventLogHandler that persists warnings and errors.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures NewHandler.
type Options struct {
	Level       slog.Level
	Development bool      // Coloured tint output instead of plain text
	Output      io.Writer // Console sink, os.Stdout when nil

	// File enables an additional JSON sink rotated by lumberjack.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns the root handler and a closer for the file sink.
// The closer is never nil.
func NewHandler(opts Options) (slog.Handler, io.Closer) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var console slog.Handler
	if opts.Development {
		console = tint.NewHandler(out, &tint.Options{
			Level:      opts.Level,
			TimeFormat: time.TimeOnly,
			NoColor:    !useColors(out),
			ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
				if _, ok := attr.Value.Any().(error); ok {
					return tint.Attr(9, attr)
				}
				return attr
			},
		})
	} else {
		console = slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.Level})
	}

	if opts.File == "" {
		return console, io.NopCloser(nil)
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: opts.Level})

	return slogmulti.Fanout(console, fileHandler), file
}

func useColors(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
