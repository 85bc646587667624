// Package slogx carries small log/slog attribute helpers shared by the
// event handlers and the example binaries.
package slogx

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Error returns an attribute with key "error" and the error's message.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Stringer returns an attribute rendering value through its String method.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// Correlation returns the attribute used for event correlation identifiers.
func Correlation(id uuid.UUID) slog.Attr {
	return slog.String("correlation_id", id.String())
}
