package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUpload        = errors.New("upload error")
	ErrValidation    = errors.New("validation error")
	ErrInvalidPath   = errors.New("invalid path")
	ErrMerge         = errors.New("merge error")
	ErrDelivery      = errors.New("delivery error")
	ErrIO            = errors.New("io error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a pipeline error to the status code the API boundary should
// return. Caller mistakes map to 4xx, everything else is a server failure.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Label returns the short taxonomy name for an error, suitable for the
// "error" field of API responses. Unknown errors report as internal.
func Label(err error) string {
	switch {
	case errors.Is(err, ErrUpload):
		return "upload error"
	case errors.Is(err, ErrValidation):
		return "validation error"
	case errors.Is(err, ErrInvalidPath):
		return "invalid path"
	case errors.Is(err, ErrMerge):
		return "merge error"
	case errors.Is(err, ErrDelivery):
		return "delivery error"
	case errors.Is(err, ErrIO):
		return "io error"
	case errors.Is(err, ErrConfiguration):
		return "configuration error"
	case errors.Is(err, ErrNotFound):
		return "not found"
	default:
		return "internal error"
	}
}

// Detail returns the human-readable portion of a classified error for the
// "details" field of API responses: the full message with its taxonomy
// prefix stripped.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if label := Label(err); label != "internal error" {
		msg = strings.TrimPrefix(msg, label+": ")
	}
	return msg
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
