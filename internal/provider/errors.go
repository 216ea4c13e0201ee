package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConnectionError: the server could not be reached at all.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot reach %s: %s", e.URL, friendlyError(e.Err))
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError: the request exceeded the hard client timeout.
type TimeoutError struct {
	URL string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out", e.URL)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ProtocolError: the server answered, but not with a usable completion.
type ProtocolError struct {
	Status int
	Reason string
}

func (e *ProtocolError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("malformed response: %s", e.Reason)
}

// parseServerError extracts a human-readable message from an error
// response body.
func parseServerError(statusCode int, body []byte) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		msg := errResp.Error.Message
		if msg == "" {
			msg = errResp.Message
		}
		if msg != "" {
			return msg
		}
	}

	switch statusCode {
	case 401:
		return "authentication failed — check your API key"
	case 404:
		return "model or endpoint not found (is the model loaded?)"
	case 429:
		return "rate limited — too many requests, please wait"
	case 500:
		return "internal server error on the inference server"
	case 502, 503:
		return "inference server temporarily unavailable"
	}

	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// friendlyError converts common network errors to messages a user can
// act on.
func friendlyError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "connection refused") {
		return "connection refused (is the server running?)"
	}
	if strings.Contains(msg, "no such host") {
		return "host not found (check the URL)"
	}
	if strings.Contains(msg, "EOF") {
		return "connection closed unexpectedly"
	}
	if strings.Contains(msg, "reset by peer") {
		return "connection reset by server"
	}
	return msg
}
