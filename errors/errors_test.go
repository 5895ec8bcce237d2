package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeSourceNotFound, "missing")
	if err.Code != ErrCodeSourceNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeSourceNotFound, err.Code)
	}
	if err.Message != "missing" {
		t.Errorf("expected message 'missing', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("SOURCE_NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeServiceUnavailable, "down")
	if !err.Retryable {
		t.Error("SERVICE_UNAVAILABLE should be retryable")
	}
}

func TestAppError_SourceNotFound(t *testing.T) {
	err := SourceNotFound("/data/crashes.csv")
	if err.Code != ErrCodeSourceNotFound {
		t.Errorf("expected SOURCE_NOT_FOUND, got %s", err.Code)
	}
	if err.Details["source"] != "/data/crashes.csv" {
		t.Errorf("expected source detail, got %v", err.Details["source"])
	}
}

func TestAppError_SourceRead_KeepsCause(t *testing.T) {
	err := SourceRead("crashes.csv", io.ErrUnexpectedEOF)
	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestAppError_InvalidHeader(t *testing.T) {
	err := InvalidHeader("crashes.csv", []string{"LATITUDE", "COLLISION_ID"})
	if err.Code != ErrCodeInvalidHeader {
		t.Errorf("expected INVALID_HEADER, got %s", err.Code)
	}
	missing, ok := err.Details["missing"].([]string)
	if !ok || len(missing) != 2 {
		t.Errorf("expected two missing columns, got %v", err.Details["missing"])
	}
}

func TestAppError_RowDecode(t *testing.T) {
	err := RowDecode("NUMBER OF PERSONS KILLED", "x")
	if err.Code != ErrCodeRowDecode {
		t.Errorf("expected ROW_DECODE_FAILED, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "NUMBER OF PERSONS KILLED") || !strings.Contains(err.Message, `"x"`) {
		t.Errorf("message should name field and value, got %q", err.Message)
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Transport("collector", nil).WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find cause through Unwrap")
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := SourceNotFound("a.csv")
	err.WithDetails(map[string]any{"attempt": 1})
	if err.Details["source"] != "a.csv" {
		t.Error("existing detail should be preserved")
	}
	if err.Details["attempt"] != 1 {
		t.Error("new detail should be merged")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := Validation("bad")
	err.WithDetail("field", "x")
	if err.Details["field"] != "x" {
		t.Errorf("expected field=x, got %v", err.Details["field"])
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := New(ErrCodeInternal, "boom")
	if err.Error() != "INTERNAL_ERROR: boom" {
		t.Errorf("unexpected format: %q", err.Error())
	}
	err.WithCause(fmt.Errorf("disk"))
	if !strings.Contains(err.Error(), "(cause: disk)") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		retryable bool
	}{
		{"Transport", Transport("svc", nil), ErrCodeTransport, true},
		{"ServiceUnavailable", ServiceUnavailable("svc"), ErrCodeServiceUnavailable, true},
		{"ConnectionFailed", ConnectionFailed("svc"), ErrCodeConnectionFailed, true},
		{"Timeout", Timeout("stream open"), ErrCodeTimeout, true},
		{"Canceled", Canceled("transfer"), ErrCodeCanceled, false},
		{"InvalidInput", InvalidInput("f", "bad"), ErrCodeInvalidInput, false},
		{"Internal", Internal(nil), ErrCodeInternal, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestErrorCode_IsRetryableCode_Table(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeServiceUnavailable, true},
		{ErrCodeConnectionFailed, true},
		{ErrCodeTimeout, true},
		{ErrCodeTransport, true},
		{ErrCodeSourceNotFound, false},
		{ErrCodeRowDecode, false},
		{ErrCodeInternal, false},
	}
	for _, tc := range tests {
		if got := IsRetryableCode(tc.code); got != tc.want {
			t.Errorf("IsRetryableCode(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestAppError_AsAppError_Success(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Internal(nil))
	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}

	_, ok = AsAppError(fmt.Errorf("not an app error"))
	if ok {
		t.Error("expected AsAppError to return false for non-AppError")
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("IsAppError should be false for plain errors")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", SourceNotFound("p"))); got != ErrCodeSourceNotFound {
		t.Errorf("expected SOURCE_NOT_FOUND, got %q", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("expected empty code, got %q", got)
	}
	if !HasCode(Canceled("t"), ErrCodeCanceled) {
		t.Error("HasCode should match")
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrap_AppErrorPassthrough(t *testing.T) {
	orig := SourceNotFound("a.csv")
	if got := Wrap(orig); got != orig {
		t.Error("Wrap should return the original AppError unchanged")
	}
}

func TestWrap_PlainError(t *testing.T) {
	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if got.Cause != plain {
		t.Error("expected cause to be the original error")
	}
}
