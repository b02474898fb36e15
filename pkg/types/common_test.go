package types

import (
	"errors"
	"testing"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a.IsEmpty() || b.IsEmpty() {
		t.Fatal("Generated IDs should not be empty")
	}
	if a == b {
		t.Error("Generated IDs should be unique")
	}
}

func TestErrorCodes(t *testing.T) {
	err := NewError(ErrCodeNotConnected, "socket is not connected")
	if err.Error() != "NOT_CONNECTED: socket is not connected" {
		t.Errorf("Unexpected error string: %s", err.Error())
	}
	if !IsErrCode(err, ErrCodeNotConnected) {
		t.Error("IsErrCode should match the error's code")
	}
	if IsErrCode(err, ErrCodeAlreadyConnected) {
		t.Error("IsErrCode should not match a different code")
	}
	if GetErrorCode(err) != ErrCodeNotConnected {
		t.Errorf("Unexpected code: %s", GetErrorCode(err))
	}
}

func TestWrapError(t *testing.T) {
	inner := errors.New("boom")
	err := WrapError(ErrCodeInternal, "something failed", inner)

	if !errors.Is(err, inner) {
		t.Error("Wrapped error should unwrap to the inner error")
	}
	if !IsErrCode(err, ErrCodeInternal) {
		t.Error("Wrapped error should keep its code")
	}
}

func TestErrorCodeOfPlainError(t *testing.T) {
	err := errors.New("plain")
	if GetErrorCode(err) != "" {
		t.Error("Plain errors have no code")
	}
	if IsErrCode(err, ErrCodeInternal) {
		t.Error("Plain errors should not match any code")
	}
}

func TestFrame(t *testing.T) {
	f := NewFrame("a", 1, true)

	if f.Arity() != 3 {
		t.Errorf("Expected arity 3, got %d", f.Arity())
	}
	if f[0] != "a" || f[1] != 1 || f[2] != true {
		t.Errorf("Unexpected values: %v", f.Values())
	}
	if f.String() != "Frame[a, 1, true]" {
		t.Errorf("Unexpected string: %s", f.String())
	}
}

func TestEmptyFrame(t *testing.T) {
	f := NewFrame()
	if f.Arity() != 0 {
		t.Errorf("Expected empty frame, got %v", f)
	}
	if f.String() != "Frame[]" {
		t.Errorf("Unexpected string: %s", f.String())
	}
}
