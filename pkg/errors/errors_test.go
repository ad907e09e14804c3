package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "ratio %v outside (0,1]", 1.5)
	want := "INVALID_CONFIG: ratio 1.5 outside (0,1]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("no such file")
	err := Wrap(ErrCodeFileNotFound, cause, "open %s", "missing.png")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeInvalidInput, "empty raster"), ErrCodeInvalidInput, true},
		{"different code", New(ErrCodeInvalidInput, "empty raster"), ErrCodeInternal, false},
		{"wrapped in fmt", fmt.Errorf("compress: %w", New(ErrCodeInternal, "no cells")), ErrCodeInternal, true},
		{"plain error", stderrors.New("plain"), ErrCodeInternal, false},
	}

	for _, tt := range tests {
		if got := Is(tt.err, tt.code); got != tt.want {
			t.Errorf("%s: Is() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeNetwork, "redis unreachable")); got != ErrCodeNetwork {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeNetwork)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "bin size must be positive")
	if got := UserMessage(err); got != "bin size must be positive" {
		t.Errorf("UserMessage = %q", got)
	}
	plain := stderrors.New("plain")
	if got := UserMessage(plain); got != "plain" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}
