package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Response is a raw response that wraps an HTTP response.
type Response struct {
	*http.Response
}

// DecodeJSON decodes the response body into out.
func (r *Response) DecodeJSON(out interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(out)
}

// Error returns an error response if there is one. If there is an error,
// this will fully consume the response body, but will not close it. The
// body must still be closed manually.
func (r *Response) Error() error {
	if r.StatusCode >= 200 && r.StatusCode < 400 {
		return nil
	}

	var bodyBuf bytes.Buffer
	if _, err := io.Copy(&bodyBuf, r.Body); err != nil {
		return err
	}

	r.Body.Close()
	r.Body = io.NopCloser(&bodyBuf)

	respErr := &ResponseError{
		HTTPMethod: r.Request.Method,
		URL:        r.Request.URL.String(),
		StatusCode: r.StatusCode,
	}

	// The backend reports errors either as {"errors": [...]} or as
	// {"message": "..."}; anything else is kept raw.
	var errBody struct {
		Errors  []string `json:"errors"`
		Message string   `json:"message"`
	}
	if err := json.Unmarshal(bodyBuf.Bytes(), &errBody); err == nil {
		respErr.Errors = errBody.Errors
		if errBody.Message != "" {
			respErr.Errors = append(respErr.Errors, errBody.Message)
		}
	}
	if len(respErr.Errors) == 0 {
		respErr.RawError = true
		respErr.Errors = []string{strings.TrimSpace(bodyBuf.String())}
	}

	return respErr
}

// ResponseError is the error returned when the backend responds with an
// error status code.
type ResponseError struct {
	HTTPMethod string
	URL        string
	StatusCode int

	// RawError marks that the body could not be parsed as a structured
	// error payload.
	RawError bool

	// Errors are the error messages extracted from the body.
	Errors []string
}

func (r *ResponseError) Error() string {
	var errString string
	switch {
	case r.RawError && len(r.Errors) == 1:
		errString = fmt.Sprintf("Raw Message:\n\n%s", r.Errors[0])
	default:
		errString = fmt.Sprintf("Messages:\n\n* %s", strings.Join(r.Errors, "\n* "))
	}

	return fmt.Sprintf(
		"Error making API request.\n\nURL: %s %s\nCode: %d. %s",
		r.HTTPMethod, r.URL, r.StatusCode, errString)
}
