package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrInvalidCredentials is returned when the backend rejects a login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidID is returned for task ids that are not UUIDs.
var ErrInvalidID = errors.New("invalid task id")

const maxErrorBody = 64 << 10

// Error is a non-success response from the backend.
type Error struct {
	StatusCode int
	Method     string
	Path       string
	// Detail is the server-provided message, or a generic fallback.
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

func hasStatus(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func decodeError(method, path string, resp *http.Response) error {
	apiErr := &Error{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr.Detail = parseDetail(data)
	if apiErr.Detail == "" {
		apiErr.Detail = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return apiErr
}

// parseDetail extracts "detail" as either a plain string or a list of
// validation issues.
func parseDetail(data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(body.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var issues []validationIssue
	if err := json.Unmarshal(body.Detail, &issues); err == nil {
		parts := make([]string, 0, len(issues))
		for _, issue := range issues {
			if issue.Msg == "" {
				continue
			}
			if len(issue.Loc) > 0 {
				parts = append(parts, fmt.Sprintf("%v: %s", issue.Loc[len(issue.Loc)-1], issue.Msg))
			} else {
				parts = append(parts, issue.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
