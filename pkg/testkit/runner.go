package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"testing"
)

// RunFile runs every scenario in path, in order, against handler as
// subtests. Captured values are visible to later scenarios only.
func RunFile(t *testing.T, handler http.Handler, path string, vars map[string]string) {
	t.Helper()

	scenarios, err := LoadScenarios(path)
	if err != nil {
		t.Fatalf("%v", err)
	}
	scope := maps.Clone(vars)
	if scope == nil {
		scope = map[string]string{}
	}
	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			rec := Run(t, handler, s, scope)
			capture(t, s, rec.Body.Bytes(), scope)
		})
	}
}

// Run fires one scenario and asserts status code and body.
func Run(t *testing.T, handler http.Handler, s Scenario, vars map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if len(s.RequestBody) > 0 {
		body = bytes.NewBufferString(expand(string(s.RequestBody), vars))
	}

	req := httptest.NewRequest(s.RequestMethod, expand(s.RequestURL, vars), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, expand(v, vars))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())
	if len(s.ExpectedBody) > 0 {
		AssertJSONSubset(t, s, []byte(expand(string(s.ExpectedBody), vars)), rec.Body.Bytes())
	}
	AssertContains(t, s, expandAll(s.ExpectedContains, vars), rec.Body.String())
	return rec
}

func capture(t *testing.T, s Scenario, body []byte, vars map[string]string) {
	t.Helper()
	if len(s.Capture) == 0 {
		return
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("[%s] capture: response is not JSON: %v", s.Name, err)
	}
	for name, path := range s.Capture {
		v, ok := lookup(doc, path)
		if !ok {
			t.Fatalf("[%s] capture %q: no value at %q", s.Name, name, path)
		}
		vars[name] = v
	}
}

func expandAll(in []string, vars map[string]string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = expand(s, vars)
	}
	return out
}
