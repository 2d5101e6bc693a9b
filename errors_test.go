package vk

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected errorClass
	}{
		{"no error", `{"response":[{"id":1}]}`, errNone},
		{"auth 5", `{"error":{"error_code":5,"error_msg":"User authorization failed"}}`, errAuth},
		{"validation 17", `{"error":{"error_code":17,"error_msg":"Validation required"}}`, errAuth},
		{"rate 6", `{"error":{"error_code":6,"error_msg":"Too many requests per second"}}`, errRate},
		{"flood 9", `{"error":{"error_code":9,"error_msg":"Flood control"}}`, errRate},
		{"quota 29", `{"error":{"error_code":29,"error_msg":"Rate limit reached"}}`, errQuota},
		{"captcha 14", `{"error":{"error_code":14,"error_msg":"Captcha needed"}}`, errCaptcha},
		{"private 30", `{"error":{"error_code":30,"error_msg":"This profile is private"}}`, errAccess},
		{"denied 15", `{"error":{"error_code":15,"error_msg":"Access denied"}}`, errAccess},
		{"deleted 18", `{"error":{"error_code":18,"error_msg":"User was deleted or banned"}}`, errNotFound},
		{"invalid id 113", `{"error":{"error_code":113,"error_msg":"Invalid user id"}}`, errNotFound},
		{"internal 10", `{"error":{"error_code":10,"error_msg":"Internal server error"}}`, errInternal},
		{"unknown code", `{"error":{"error_code":999,"error_msg":"?"}}`, errOther},
		{"invalid json", `{invalid`, errNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, apiErr := classifyError("users.get", []byte(tt.body))
			if result != tt.expected {
				t.Fatalf("classifyError(%s) = %d, want %d", tt.body, result, tt.expected)
			}
			if (result == errNone) != (apiErr == nil) {
				t.Fatalf("classifyError(%s) apiErr = %v", tt.body, apiErr)
			}
		})
	}
}

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&NetworkError{Method: "users.get", Err: cause})
	if !errors.Is(err, cause) {
		t.Fatal("expected NetworkError to unwrap to its cause")
	}
	if got := (&NetworkError{Method: "users.get", Status: 502, Err: cause}).Error(); got != "users.get: HTTP 502: connection reset" {
		t.Fatalf("unexpected message %q", got)
	}
}
