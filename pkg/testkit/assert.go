package testkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code with testify.
func AssertStatusCode(t *testing.T, s Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got,
		"[%s] HTTP status code mismatch\nbody: %s", s.Name, string(body))
}

// AssertJSONSubset checks that every key in expected appears in actual with
// an equal value. Arrays compare element-wise by position; extra keys in
// actual are ignored.
func AssertJSONSubset(t *testing.T, s Scenario, expected, actual []byte) {
	t.Helper()

	var expVal, actVal interface{}
	require.NoError(t, json.Unmarshal(expected, &expVal),
		"[%s] expectedBody is not valid JSON", s.Name)
	if !assert.NoError(t, json.Unmarshal(actual, &actVal),
		"[%s] response is not valid JSON\nbody: %s", s.Name, string(actual)) {
		return
	}
	assert.Equal(t, expVal, project(expVal, actVal),
		"[%s] response body mismatch\nbody: %s", s.Name, string(actual))
}

// AssertContains checks the raw body for each wanted substring.
func AssertContains(t *testing.T, s Scenario, wants []string, body string) {
	t.Helper()
	for _, want := range wants {
		assert.Contains(t, body, want, "[%s]", s.Name)
	}
}

// project trims actual down to the shape of expected so a plain equality
// check reports only the differences that matter.
func project(expected, actual interface{}) interface{} {
	switch e := expected.(type) {
	case map[string]interface{}:
		a, ok := actual.(map[string]interface{})
		if !ok {
			return actual
		}
		out := make(map[string]interface{}, len(e))
		for k, ev := range e {
			if av, ok := a[k]; ok {
				out[k] = project(ev, av)
			}
		}
		return out
	case []interface{}:
		a, ok := actual.([]interface{})
		if !ok || len(a) != len(e) {
			return actual
		}
		out := make([]interface{}, len(e))
		for i := range e {
			out[i] = project(e[i], a[i])
		}
		return out
	default:
		return actual
	}
}
