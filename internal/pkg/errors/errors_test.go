package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "composition id is required")

	if err.Code != CodeValidation {
		t.Errorf("expected code=%s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "composition id is required" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if len(err.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple error",
			err:      New(CodeValidation, "invalid"),
			contains: []string{"VALIDATION_ERROR", "invalid"},
		},
		{
			name: "error with op",
			err: &Error{
				Code:    CodeBundle,
				Message: "bundle failed",
				Op:      "render.bundle",
			},
			contains: []string{"render.bundle", "BUNDLE_FAILED", "bundle failed"},
		},
		{
			name: "error with underlying",
			err: &Error{
				Code:    CodeRender,
				Message: "render failed",
				Err:     fmt.Errorf("chromium crashed"),
			},
			contains: []string{"render failed", "chromium crashed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			str := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(str, c) {
					t.Errorf("expected error string to contain %q, got: %s", c, str)
				}
			}
		})
	}
}

func TestWrap(t *testing.T) {
	original := fmt.Errorf("original error")
	wrapped := Wrap(original, "processor.fetch", "failed to fetch render")

	if wrapped.Code != CodeInternal {
		t.Errorf("expected code=%s, got %s", CodeInternal, wrapped.Code)
	}
	if wrapped.Op != "processor.fetch" {
		t.Errorf("expected op='processor.fetch', got %s", wrapped.Op)
	}
	if errors.Unwrap(wrapped) != original {
		t.Error("Unwrap should return original error")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "op", "message") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if WrapWithCode(nil, CodeRender, "op", "message") != nil {
		t.Error("WrapWithCode(nil) should return nil")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	original := New(CodeOutputMissing, "no file")
	wrapped := Wrap(original, "processor.render", "render failed")

	if wrapped.Code != CodeOutputMissing {
		t.Errorf("expected code to be preserved as %s, got %s", CodeOutputMissing, wrapped.Code)
	}
	if GetOp(wrapped) != "processor.render" {
		t.Errorf("expected outer op, got %q", GetOp(wrapped))
	}
}

func TestWrapContextError(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("waiting: %w", context.Canceled), "render.media", "render failed")
	if wrapped.Code != CodeCanceled {
		t.Errorf("expected %s, got %s", CodeCanceled, wrapped.Code)
	}
	if !errors.Is(wrapped, context.Canceled) {
		t.Error("expected context.Canceled to stay reachable")
	}
}

func TestWithFields(t *testing.T) {
	err := New(CodeValidation, "invalid").
		WithField("field", "fps").
		WithFields(map[string]any{"value": -1})

	if err.Fields["field"] != "fps" {
		t.Errorf("expected field='fps', got %v", err.Fields["field"])
	}
	if err.Fields["value"] != -1 {
		t.Errorf("expected value=-1, got %v", err.Fields["value"])
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, 400},
		{CodeNotFound, 404},
		{CodeConflict, 409},
		{CodeFailedPrecond, 412},
		{CodeCanceled, 499},
		{CodeInternal, 500},
		{CodeOutputMissing, 500},
		{CodeBundle, 502},
		{CodeRender, 502},
		{CodeUnavailable, 503},
		{CodeTimeout, 504},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "test")
			if err.HTTPStatus() != tt.status {
				t.Errorf("expected status=%d, got %d", tt.status, err.HTTPStatus())
			}
		})
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		err := NotFound("render", "rnd_123")
		if err.Code != CodeNotFound {
			t.Errorf("expected code=%s, got %s", CodeNotFound, err.Code)
		}
		if err.Fields["id"] != "rnd_123" {
			t.Errorf("expected id='rnd_123', got %v", err.Fields["id"])
		}
	})

	t.Run("ValidationField", func(t *testing.T) {
		err := ValidationField("composition_id", "is required")
		if !IsValidation(err) {
			t.Errorf("expected validation error, got %s", err.Code)
		}
		if err.Fields["field"] != "composition_id" {
			t.Errorf("expected field='composition_id', got %v", err.Fields["field"])
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		if err := Timeout("queue pop"); err.Code != CodeTimeout {
			t.Errorf("expected code=%s, got %s", CodeTimeout, err.Code)
		}
	})

	t.Run("Unavailable", func(t *testing.T) {
		if err := Unavailable("redis"); err.Code != CodeUnavailable {
			t.Errorf("expected code=%s, got %s", CodeUnavailable, err.Code)
		}
	})
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"bundle", New(CodeBundle, "x"), IsBundle},
		{"render", New(CodeRender, "x"), IsRender},
		{"output missing", New(CodeOutputMissing, "x"), IsOutputMissing},
		{"canceled", New(CodeCanceled, "x"), IsCanceled},
		{"not found", New(CodeNotFound, "x"), IsNotFound},
		{"conflict", New(CodeConflict, "x"), IsConflict},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(CodeRender, "x")), IsRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.pred(tt.err) {
				t.Errorf("predicate returned false for %v", tt.err)
			}
		})
	}

	if IsRender(fmt.Errorf("plain")) {
		t.Error("plain errors are INTERNAL_ERROR")
	}
}

func TestGetHTTPStatus(t *testing.T) {
	if GetHTTPStatus(New(CodeNotFound, "not found")) != 404 {
		t.Error("expected 404")
	}
	if GetHTTPStatus(fmt.Errorf("standard")) != 500 {
		t.Error("expected 500 for standard error")
	}
}

func TestGetFields(t *testing.T) {
	err := New(CodeValidation, "invalid").WithField("field", "width")
	if GetFields(err)["field"] != "width" {
		t.Errorf("expected field='width', got %v", GetFields(err)["field"])
	}
	if GetFields(fmt.Errorf("standard")) != nil {
		t.Error("expected nil fields for standard error")
	}
}

func TestStackTrace(t *testing.T) {
	stack := New(CodeInternal, "test error").StackTrace()
	if !strings.Contains(stack, ".go:") {
		t.Errorf("expected stack trace to contain file references, got: %s", stack)
	}
}

func TestErrorIs(t *testing.T) {
	err1 := New(CodeRender, "error 1")
	err2 := New(CodeRender, "error 2")
	err3 := New(CodeBundle, "error 3")

	if !errors.Is(err1, err2) {
		t.Error("expected errors with same code to match with Is")
	}
	if errors.Is(err1, err3) {
		t.Error("expected errors with different codes to not match")
	}
}

func TestAsAndIs(t *testing.T) {
	original := New(CodeNotFound, "not found")
	wrapped := fmt.Errorf("wrapped: %w", original)

	var target *Error
	if !As(wrapped, &target) {
		t.Fatal("expected As to find Error in chain")
	}
	if target.Code != CodeNotFound {
		t.Errorf("expected code=%s, got %s", CodeNotFound, target.Code)
	}
	if !Is(wrapped, original) {
		t.Error("expected Is to match original error")
	}
}
