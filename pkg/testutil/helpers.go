package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/principal"
)

// NewJSONRequest builds a request with a JSON body.
func NewJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AsPrincipal attaches an authenticated actor to the request, the way the
// Authenticate middleware would.
func AsPrincipal(r *http.Request, p *principal.Principal) *http.Request {
	return r.WithContext(principal.WithPrincipal(r.Context(), p))
}

// DecodeResponse unmarshals the standard response envelope and re-decodes the
// data payload into out.
func DecodeResponse(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) *httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	if out != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return &resp
}

// RequireErrorCode asserts the response carries the given error code.
func RequireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code)
	resp := DecodeResponse(t, rec, nil)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)
}
