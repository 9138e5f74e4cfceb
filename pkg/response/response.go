// Package response writes the JSON envelope every API endpoint returns:
//
//	{"status":200,"data":{...}}
//	{"status":200,"data":[...],"meta":{"page":1,"per_page":4,"total":9,"last_page":3}}
//	{"status":422,"message":"Validation failed","errors":{"name":"..."}}
package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/stockroom/pkg/orm"
)

// Standard messages shared by middleware and controllers.
const (
	MsgUnauthenticated = "Authentication credentials were not provided."
	MsgForbidden       = "You do not have permission to perform this action."
	MsgNotFound        = "Not found"
	MsgValidation      = "Validation failed"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// Write sends body with the given status.
func Write(w http.ResponseWriter, status int, body Envelope) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func Success(w http.ResponseWriter, data any) {
	Write(w, http.StatusOK, Envelope{Status: http.StatusOK, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	Write(w, http.StatusCreated, Envelope{Status: http.StatusCreated, Data: data})
}

// Accepted acknowledges work handed to the job queue.
func Accepted(w http.ResponseWriter, message string) {
	Write(w, http.StatusAccepted, Envelope{Status: http.StatusAccepted, Message: message})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Paginated sends one page in data and its position in meta.
func Paginated(w http.ResponseWriter, data any, p orm.Pagination) {
	Write(w, http.StatusOK, Envelope{Status: http.StatusOK, Data: data, Meta: p})
}

func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, Envelope{Status: status, Message: message})
}

// ValidationError sends a 422 keyed by JSON field name.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	Write(w, http.StatusUnprocessableEntity, Envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: MsgValidation,
		Errors:  errs,
	})
}

func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, MsgUnauthenticated)
}

func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, MsgForbidden)
}

func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, MsgNotFound)
}
