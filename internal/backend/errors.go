package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNoRows is matched (errors.Is) by the error of a Single() query that
// found nothing.
var ErrNoRows = errors.New("no rows returned")

// codeNoRows is PostgREST's "JSON object requested, multiple (or no) rows returned".
const codeNoRows = "PGRST116"

// APIError is a non 2xx answer from the backend. PostgREST and GoTrue use
// different field names for the message, both are decoded.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`

	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.text() == "" {
		apiErr.Message = http.StatusText(statusCode)
		if len(body) > 0 && len(body) < 512 {
			apiErr.Details = string(body)
		}
	}
	return apiErr
}

func (e *APIError) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Msg != "":
		return e.Msg
	default:
		return e.ErrorDescription
	}
}

func (e *APIError) Error() string {
	code := e.Code
	if code == "" {
		code = e.ErrorCode
	}
	if code == "" {
		return fmt.Sprintf("backend error [%d]: %s", e.StatusCode, e.text())
	}
	return fmt.Sprintf("backend error [%d] [%s]: %s", e.StatusCode, code, e.text())
}

func (e *APIError) Is(target error) bool {
	return target == ErrNoRows && e.Code == codeNoRows
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNoRows) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
