package reqid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromCtx(r.Context())
	}))

	cases := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"adopts client id", "batch-2024.10_07", true},
		{"mints when missing", "", false},
		{"rejects control characters", "abc\ndef", false},
		{"rejects long ids", strings.Repeat("a", maxLen+1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(Header, tc.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(Header))
			if tc.keep {
				assert.Equal(t, tc.incoming, seen)
			} else {
				assert.NotEqual(t, tc.incoming, seen)
			}
		})
	}
}
