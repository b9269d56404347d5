//go:build integration

package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/stretchr/testify/require"
)

// BuildRequest creates a request with a JSON body when body is non-nil.
func (h *TestHelper) BuildRequest(method, reqURL string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.T, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, reqURL, reader)
	require.NoError(h.T, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// DoRequest performs an HTTP request and asserts that no network-level error occurred.
func (h *TestHelper) DoRequest(req *http.Request, client *http.Client) *http.Response {
	resp, err := client.Do(req)
	require.NoError(h.T, err, "HTTP request failed")
	return resp
}

// ReadBody reads the response body and returns it as a string for logging or inspection.
func (h *TestHelper) ReadBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return "<nil response or body>"
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	// Restore the body so it can be read again if needed.
	resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	require.NoError(h.T, err, "Failed to read response body")
	return string(bodyBytes)
}

// DecodeJSON reads resp into out.
func (h *TestHelper) DecodeJSON(resp *http.Response, out any) {
	require.NoError(h.T, json.Unmarshal([]byte(h.ReadBody(resp)), out), "Failed to decode JSON response")
}
