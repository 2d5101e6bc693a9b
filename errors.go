package vk

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrProfileNotFound marks a node whose base profile could not be
	// fetched. The node is skipped, never retried.
	ErrProfileNotFound = errors.New("vk: profile not found")

	// ErrNoToken is returned when every token in the pool is inactive or
	// rate-limited for the requested method.
	ErrNoToken = errors.New("vk: no usable access token")
)

// NetworkError is a transport-level failure: the request could not be sent,
// timed out, or came back with a non-200 status.
type NetworkError struct {
	Method string
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Method, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is an error object returned by VK inside a 200 response.
type APIError struct {
	Method  string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: api error %d: %s", e.Method, e.Code, e.Message)
}

// errorClass categorizes VK API error codes for token bookkeeping.
type errorClass int

const (
	errNone     errorClass = iota
	errAuth                // 5, 17: token invalid or needs validation
	errRate                // 6, 9: too many requests / flood control
	errQuota               // 29: method quota exhausted
	errCaptcha             // 14: captcha required
	errAccess              // 15, 30: access denied / private profile
	errNotFound            // 18, 113: deleted, banned or invalid user
	errInternal            // 10: VK internal error
	errOther
)

// classifyError inspects a response body for a VK error object.
// It returns errNone and a nil error when the body carries none.
func classifyError(method string, body []byte) (errorClass, *APIError) {
	var errResp struct {
		Error *struct {
			Code    int    `json:"error_code"`
			Message string `json:"error_msg"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) != nil || errResp.Error == nil {
		return errNone, nil
	}
	apiErr := &APIError{Method: method, Code: errResp.Error.Code, Message: errResp.Error.Message}

	switch apiErr.Code {
	case 5, 17:
		return errAuth, apiErr
	case 6, 9:
		return errRate, apiErr
	case 29:
		return errQuota, apiErr
	case 14:
		return errCaptcha, apiErr
	case 15, 30:
		return errAccess, apiErr
	case 18, 113:
		return errNotFound, apiErr
	case 10:
		return errInternal, apiErr
	}
	return errOther, apiErr
}
