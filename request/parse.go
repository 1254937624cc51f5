package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
	"github.com/jrsteele09/medihelp-client/internal/utils"
)

const maxBodySize = 10 << 20

// SafeParseJSON decodes text into a T, returning fallback when text is empty
// or is not valid JSON for T.
func SafeParseJSON[T any](text string, fallback T) T {
	if strings.TrimSpace(text) == "" {
		return fallback
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return fallback
	}
	return v
}

// ExtractErrorMessage reads the body of resp once and returns the first
// non-empty detail, error or message field, else the HTTP status text, else
// defaultMessage. The body is closed.
func ExtractErrorMessage(resp *http.Response, defaultMessage string) string {
	if resp == nil {
		return defaultMessage
	}
	statusText := StatusText(resp)
	if statusText == "" {
		statusText = defaultMessage
	}
	if resp.Body == nil {
		return statusText
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return statusText
	}
	return messageFromBody(body, statusText)
}

func messageFromBody(body []byte, def string) string {
	data := SafeParseJSON(string(body), map[string]any{})
	if msg, ok := utils.FirstString(data, "detail", "error", "message"); ok {
		return msg
	}
	return def
}

// StatusText is the reason phrase of resp, taken from the status line when the
// server sent one and from the standard table otherwise.
func StatusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// IsSuccess reports a 2xx status
func IsSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ReadBody reads and closes the body of a response
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, apperrors.Wrapf(err, "[request.ReadBody] read body")
	}
	return body, nil
}

// DecodeJSON closes resp after decoding its body into a T. Non-2xx statuses give
// a *errors.ServerError and undecodable bodies a *errors.DataFormatError.
func DecodeJSON[T any](resp *http.Response, expected string) (T, error) {
	var v T
	if !IsSuccess(resp) {
		return v, &apperrors.ServerError{Status: resp.StatusCode, Message: ExtractErrorMessage(resp, "")}
	}
	body, err := ReadBody(resp)
	if err != nil {
		return v, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return v, &apperrors.DataFormatError{Expected: expected, Err: apperrors.Wrapf(apperrors.ErrInvalidResponse, "empty body")}
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, &apperrors.DataFormatError{Expected: expected, Err: err}
	}
	return v, nil
}

// FieldErrors flattens a validation body such as {"email": ["already taken"]}
// into "email: already taken". Keys are sorted; "detail" wins when present.
func FieldErrors(body map[string]any) string {
	if msg, ok := utils.FirstString(body, "detail"); ok {
		return msg
	}
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := body[k].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s: %s", k, v))
		case []any:
			parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(utils.ToStringSlice(v), " ")))
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		}
	}
	return strings.Join(parts, ", ")
}

// NewJSONRequest builds a request with body marshalled as JSON. A nil body sends no payload.
func NewJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrapf(err, "[request.NewJSONRequest] marshal %s %s", method, url)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[request.NewJSONRequest] %s %s", method, url)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
