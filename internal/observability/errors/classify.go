// Package errors provides error classification helpers for metric tagging.
package errors

import (
	goerrors "errors"
	"fmt"
	"strings"
)

// Classify returns a normalized type name for err, suitable as a metric tag.
// It unwraps to the innermost error so wrapped context does not hide the
// signal, then lowercases the concrete type name.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	for {
		inner := goerrors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}

	name := fmt.Sprintf("%T", err)
	name = strings.TrimLeft(name, "*")
	name = strings.ToLower(strings.ReplaceAll(name, ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
