package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is a structured API failure. The server reports errors in one of
// three shapes: a "detail" string, an "error" string, or a map of per-field
// message lists (validation failures). All three are captured so callers can
// apply their own message precedence.
type Error struct {
	StatusCode int
	Detail     string
	Message    string
	Fields     map[string][]string
	Raw        string // Original response body, for the last-resort fallback
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Detail)
	case e.Message != "":
		return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Raw)
	}
}

// IsUnauthorized reports whether the failure was a 401
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Field returns the first message recorded for a field, or ""
func (e *Error) Field(name string) string {
	if msgs := e.Fields[name]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// parseError builds an *Error from a non-2xx response body
func parseError(statusCode int, body []byte) *Error {
	apiErr := &Error{
		StatusCode: statusCode,
		Raw:        string(body),
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	for key, value := range payload {
		switch v := value.(type) {
		case string:
			switch key {
			case "detail":
				apiErr.Detail = v
			case "error":
				apiErr.Message = v
			default:
				if apiErr.Fields == nil {
					apiErr.Fields = make(map[string][]string)
				}
				apiErr.Fields[key] = []string{v}
			}
		case []interface{}:
			var msgs []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					msgs = append(msgs, s)
				}
			}
			if len(msgs) > 0 {
				if apiErr.Fields == nil {
					apiErr.Fields = make(map[string][]string)
				}
				apiErr.Fields[key] = msgs
			}
		}
	}

	return apiErr
}
