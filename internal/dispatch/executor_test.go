package dispatch

import (
	"context"
	"errors"
	"testing"
)

func TestResult_IsSuccess(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		expected bool
	}{
		{"success", Result{Success: true}, true},
		{"error", Result{Success: false, Error: errors.New("error")}, false},
		{"panic", Result{Success: false, Panicked: true}, false},
		{"skipped", Result{Success: false, Skipped: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.IsSuccess(); got != tt.expected {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestResult_IsErrorIsPanic(t *testing.T) {
	errResult := Result{Error: errors.New("error")}
	panicResult := Result{Panicked: true, PanicValue: "boom"}

	if !errResult.IsError() || errResult.IsPanic() {
		t.Errorf("error result classified wrong: %+v", errResult)
	}
	if panicResult.IsError() || !panicResult.IsPanic() {
		t.Errorf("panic result classified wrong: %+v", panicResult)
	}
}

func TestExecutor_Execute_Success(t *testing.T) {
	executor := NewExecutor()

	var called bool
	result := executor.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	if !result.IsSuccess() {
		t.Errorf("expected success, got %+v", result)
	}
	if !called {
		t.Error("task was not called")
	}
}

func TestExecutor_Execute_Error(t *testing.T) {
	executor := NewExecutor()
	expectedErr := errors.New("task error")

	result := executor.Execute(context.Background(), func(ctx context.Context) error {
		return expectedErr
	})

	if !errors.Is(result.Error, expectedErr) {
		t.Errorf("expected %v, got %v", expectedErr, result.Error)
	}
	if result.Success {
		t.Error("expected Success=false")
	}
}

func TestExecutor_Execute_Panic(t *testing.T) {
	var gotValue any
	executor := NewExecutor(WithExecutorPanicHandler(func(_ any, v any, stack []byte) {
		gotValue = v
		if len(stack) == 0 {
			t.Error("expected stack trace")
		}
	}))

	result := executor.Execute(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})

	if !result.Panicked || result.PanicValue != "boom" {
		t.Errorf("expected recorded panic, got %+v", result)
	}
	if gotValue != "boom" {
		t.Errorf("panic handler got %v", gotValue)
	}
}

func TestExecutor_Execute_PanicHandlerPanics(t *testing.T) {
	executor := NewExecutor(WithExecutorPanicHandler(func(_ any, v any, stack []byte) {
		panic("handler also panics")
	}))

	result := executor.Execute(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})
	if !result.Panicked {
		t.Errorf("expected panic result, got %+v", result)
	}
}

func TestExecutor_Execute_ContextCancelled(t *testing.T) {
	executor := NewExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called bool
	result := executor.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})

	if called {
		t.Error("task should not run with a cancelled context")
	}
	if !result.Skipped || !errors.Is(result.Error, context.Canceled) {
		t.Errorf("expected skipped/cancelled, got %+v", result)
	}
}

func TestExecutor_ExecuteHandler(t *testing.T) {
	executor := NewExecutor()

	var received any
	result := executor.ExecuteHandler(context.Background(), "evt", HandlerFunc(func(ctx context.Context, event any) error {
		received = event
		return nil
	}))

	if !result.IsSuccess() {
		t.Errorf("expected success, got %+v", result)
	}
	if received != "evt" {
		t.Errorf("handler received %v", received)
	}
}

func TestPanicError_Unwrap(t *testing.T) {
	sentinel := errors.New("sentinel")

	pe := &PanicError{Value: sentinel}
	if !errors.Is(pe, sentinel) {
		t.Error("PanicError should unwrap an error value")
	}

	pe = &PanicError{Value: "text"}
	if pe.Unwrap() != nil {
		t.Error("PanicError with non-error value should unwrap to nil")
	}
	if pe.Error() == "" {
		t.Error("expected non-empty error string")
	}
}
