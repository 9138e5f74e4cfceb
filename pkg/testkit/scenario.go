package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Scenario describes one HTTP request and the response it must produce.
// Scenario files hold a JSON array of these:
//
//	[
//	  {
//	    "name": "list products requires auth",
//	    "requestMethod": "GET",
//	    "requestUrl": "/api/products",
//	    "expectedCode": 401
//	  }
//	]
//
// "{{var}}" placeholders in requestUrl, headers and bodies are replaced from
// the vars passed to RunFile. "capture" stores values from the response body
// as new vars for the scenarios that follow, keyed by dotted path:
//
//	"capture": {"gizmo": "data.id"}
type Scenario struct {
	Name string `json:"name"`

	RequestMethod string            `json:"requestMethod"`
	RequestURL    string            `json:"requestUrl"`
	Headers       map[string]string `json:"headers"`
	RequestBody   json.RawMessage   `json:"requestBody"`

	ExpectedCode int `json:"expectedCode"`
	// ExpectedBody, when set, must be a JSON subset of the response body.
	ExpectedBody json.RawMessage `json:"expectedBody"`
	// ExpectedContains lists substrings the raw response body must contain.
	ExpectedContains []string `json:"expectedContains"`

	Capture map[string]string `json:"capture"`
}

// LoadScenarios reads and validates a scenario array file.
func LoadScenarios(path string) ([]Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var out []Scenario
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	for i := range out {
		if err := out[i].validate(); err != nil {
			return nil, fmt.Errorf("testkit: scenario %d in %q: %w", i, abs, err)
		}
	}
	return out, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	s.RequestMethod = strings.ToUpper(s.RequestMethod)
	return nil
}

// expand substitutes {{key}} placeholders.
func expand(s string, vars map[string]string) string {
	for k, v := range vars {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

// lookup walks a dotted path ("data.items.0.id") through decoded JSON and
// renders the leaf as text.
func lookup(doc any, path string) (string, bool) {
	cur := doc
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return "", false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return "", false
			}
			cur = node[i]
		default:
			return "", false
		}
	}
	switch leaf := cur.(type) {
	case string:
		return leaf, true
	case float64:
		return strconv.FormatFloat(leaf, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(leaf), true
	}
	return "", false
}
