package colopresso

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := newError("TestOp", ErrEncodeFailed, cause)
	if !errors.Is(e, cause) {
		t.Fatalf("errors.Is should unwrap to cause")
	}
}

func TestErrorStringIncludesOpAndCode(t *testing.T) {
	e := newError("EncodeWebP", ErrInvalidParameter, nil)
	msg := e.Error()
	if !containsAll(msg, "EncodeWebP", "invalid parameter") {
		t.Fatalf("error message %q missing op or code text", msg)
	}
}

func TestErrAVIFUnavailableCode(t *testing.T) {
	var e *Error
	if !errors.As(ErrAVIFUnavailable, &e) {
		t.Fatalf("ErrAVIFUnavailable should be a *Error")
	}
	if e.Code != ErrAVIFUnavailableCode {
		t.Fatalf("got code %v, want ErrAVIFUnavailableCode", e.Code)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
