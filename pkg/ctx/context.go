// Package ctx gives handlers a single request context with helpers for
// params, binding and the JSON envelope.
//
//	func (pc *ProductController) Show(c *ctx.Context) {
//	    id, ok := c.ParamUint("id")
//	    if !ok {
//	        return
//	    }
//	    ...
//	    c.Success(product)
//	}
//
//	user.Get("/products/{id}", "products.show", ctx.Wrap(pc.Show))
package ctx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shashiranjanraj/stockroom/pkg/bind"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"github.com/shashiranjanraj/stockroom/pkg/response"
	"github.com/shashiranjanraj/stockroom/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair. It is pooled and must not be
// retained after the handler returns.
type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{New: func() any { return new(Context) }}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W, c.R = w, r
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// ParamUint parses a numeric path parameter. On failure it sends a 404 and
// returns false.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(chi.URLParam(c.R, key), 10, 64)
	if err != nil || n == 0 {
		c.NotFound()
		return 0, false
	}
	return uint(n), true
}

// Query returns a query-string value. Returns "" if not present.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// QueryInt returns a positive integer query value, or def.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// QueryUints parses a repeated or comma-separated id list ("?id=1&id=2" or
// "?id=1,2"). Malformed entries are skipped.
func (c *Context) QueryUints(key string) []uint {
	var out []uint
	for _, v := range c.R.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64); err == nil && n > 0 {
				out = append(out, uint(n))
			}
		}
	}
	return out
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and runs validation.
// On validation failure it sends a 422 and returns false; on a decode error
// it sends a 400 and returns false.
//
//	var input services.SaleInput
//	if !c.BindJSON(&input) {
//	    return // response already sent
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// FormFile returns the uploaded file under field. When it is missing or
// unreadable a 400 has been sent and ok is false.
func (c *Context) FormFile(field string) (f multipart.File, h *multipart.FileHeader, ok bool) {
	f, h, err := bind.File(c.W, c.R, field)
	if err != nil {
		if errors.Is(err, bind.ErrNoFile) {
			c.ValidationError(map[string]string{field: fmt.Sprintf("The %s field is required.", field)})
			return nil, nil, false
		}
		c.Error(http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	return f, h, true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// Success sends a 200 envelope.
func (c *Context) Success(data any) {
	response.Success(c.W, data)
}

// Accepted sends a 202 with message.
func (c *Context) Accepted(message string) {
	response.Accepted(c.W, message)
}

// Created sends a 201 envelope.
func (c *Context) Created(data any) {
	response.Created(c.W, data)
}

// NoContent sends a 204 with no body.
func (c *Context) NoContent() {
	c.W.WriteHeader(http.StatusNoContent)
}

// Paginated sends one page of data with its pagination metadata.
func (c *Context) Paginated(data any, p orm.Pagination) {
	response.Paginated(c.W, data, p)
}

// Error sends a JSON error envelope with the given status and message.
func (c *Context) Error(code int, message string) {
	response.Error(c.W, code, message)
}

// ValidationError sends a 422 with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	response.ValidationError(c.W, errs)
}

// Unauthorized sends a 401.
func (c *Context) Unauthorized(message ...string) {
	c.Error(http.StatusUnauthorized, first(message, response.MsgUnauthenticated))
}

// Forbidden sends a 403.
func (c *Context) Forbidden(message ...string) {
	c.Error(http.StatusForbidden, first(message, response.MsgForbidden))
}

// NotFound sends a 404.
func (c *Context) NotFound(message ...string) {
	c.Error(http.StatusNotFound, first(message, response.MsgNotFound))
}

// Download sends r as a 200 file attachment named filename.
func (c *Context) Download(filename, contentType string, r io.Reader) error {
	h := c.W.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.W.WriteHeader(http.StatusOK)
	_, err := io.Copy(c.W, r)
	return err
}

func first(s []string, def string) string {
	if len(s) > 0 && s[0] != "" {
		return s[0]
	}
	return def
}
