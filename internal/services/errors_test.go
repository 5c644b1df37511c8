package services_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"splice/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrMerge, "ffmpeg", "concat", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrMerge) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ffmpeg", "concat", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "api", "merge", "too few files", nil)
	if status := services.HTTPStatus(validationErr); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation error, got %d", status)
	}

	pathErr := services.Wrap(services.ErrInvalidPath, "manifest", "write", "quote in path", nil)
	if status := services.HTTPStatus(pathErr); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid path, got %d", status)
	}

	mergeErr := services.Wrap(services.ErrMerge, "ffmpeg", "concat", "exit status 1", errors.New("io"))
	if status := services.HTTPStatus(mergeErr); status != http.StatusInternalServerError {
		t.Fatalf("expected 500 for merge error, got %d", status)
	}

	if status := services.HTTPStatus(services.Wrap(services.ErrNotFound, "history", "get", "no such job", nil)); status != http.StatusNotFound {
		t.Fatalf("expected 404 for not found, got %d", status)
	}

	if status := services.HTTPStatus(errors.New("untagged")); status != http.StatusInternalServerError {
		t.Fatalf("expected 500 for untagged error, got %d", status)
	}
}

func TestLabelNamesTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrUpload, "staging", "stage", "short write", nil), "upload error"},
		{services.Wrap(services.ErrValidation, "api", "merge", "too few files", nil), "validation error"},
		{services.Wrap(services.ErrInvalidPath, "manifest", "write", "quote", nil), "invalid path"},
		{services.Wrap(services.ErrMerge, "ffmpeg", "run", "exit 1", nil), "merge error"},
		{services.Wrap(services.ErrDelivery, "api", "stream", "client gone", nil), "delivery error"},
		{errors.New("untagged"), "internal error"},
	}
	for _, tc := range cases {
		if got := services.Label(tc.err); got != tc.want {
			t.Fatalf("Label(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
