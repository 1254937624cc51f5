package request_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
	"github.com/jrsteele09/medihelp-client/request"
	"github.com/stretchr/testify/require"
)

func TestSafeParseJSON(t *testing.T) {
	fallback := map[string]any{"fallback": true}

	require.Equal(t, fallback, request.SafeParseJSON("", fallback))
	require.Equal(t, fallback, request.SafeParseJSON("   ", fallback))
	require.Equal(t, fallback, request.SafeParseJSON("not json", fallback))
	require.Equal(t, map[string]any{"a": 1.0}, request.SafeParseJSON(`{"a":1}`, fallback))

	type check struct {
		ID int `json:"id"`
	}
	require.Equal(t, check{ID: 4}, request.SafeParseJSON(`{"id":4}`, check{}))
	require.Equal(t, check{ID: -1}, request.SafeParseJSON(`[1,2]`, check{ID: -1}))
}

func response(status int, statusLine, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     statusLine,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		want string
	}{
		{"detail wins", response(400, "400 Bad Request", `{"detail":"No active account","error":"x","message":"y"}`), "No active account"},
		{"error next", response(400, "400 Bad Request", `{"error":"bad symptom","message":"y"}`), "bad symptom"},
		{"message last", response(500, "500 Internal Server Error", `{"message":"boom"}`), "boom"},
		{"unknown fields use status text", response(400, "400 Bad Request", `{"email":["taken"]}`), "Bad Request"},
		{"empty body uses status text", response(404, "404 Not Found", ""), "Not Found"},
		{"html body uses status text", response(502, "502 Bad Gateway", "<html>oops</html>"), "Bad Gateway"},
		{"no status line uses table", response(403, "", ""), "Forbidden"},
		{"nothing uses default", response(599, "", ""), "An error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, request.ExtractErrorMessage(tt.resp, "An error occurred"))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type symptom struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	t.Run("success", func(t *testing.T) {
		s, err := request.DecodeJSON[symptom](response(200, "200 OK", `{"id":1,"name":"Headache"}`), "symptom")
		require.NoError(t, err)
		require.Equal(t, symptom{ID: 1, Name: "Headache"}, s)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := request.DecodeJSON[symptom](response(404, "404 Not Found", `{"detail":"Not found."}`), "symptom")
		var se *apperrors.ServerError
		require.ErrorAs(t, err, &se)
		require.Equal(t, 404, se.Status)
		require.Equal(t, "Not found.", se.Message)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := request.DecodeJSON[[]symptom](response(200, "200 OK", `{"id":1}`), "symptom list")
		var dfe *apperrors.DataFormatError
		require.ErrorAs(t, err, &dfe)
		require.Equal(t, "symptom list", dfe.Expected)
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := request.DecodeJSON[symptom](response(200, "200 OK", ""), "symptom")
		require.ErrorIs(t, err, apperrors.ErrInvalidResponse)
	})
}

func TestFieldErrors(t *testing.T) {
	require.Equal(t, "Invalid data", request.FieldErrors(map[string]any{"detail": "Invalid data", "email": "x"}))
	require.Equal(t,
		"email: user with this email already exists., password: too short",
		request.FieldErrors(map[string]any{
			"password": "too short",
			"email":    []any{"user with this email already exists."},
		}))
}

func TestNewJSONRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.JSONEq(t, `{"refresh":"R"}`, string(b))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, err := request.NewJSONRequest(t.Context(), http.MethodPost, srv.URL, map[string]string{"refresh": "R"})
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
}
