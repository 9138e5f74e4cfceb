// Package bind decodes and validates request bodies.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/validate"
)

// ErrNoFile is returned by File when the form field is absent.
var ErrNoFile = errors.New("bind: no file uploaded")

func limit(key string, def int) int64 {
	if n := config.Int(key, def); n > 0 {
		return int64(n)
	}
	return int64(def)
}

func maxBodyBytes() int64   { return limit("MAX_BODY_BYTES", 4<<20) }
func maxUploadBytes() int64 { return limit("MAX_UPLOAD_BYTES", 10<<20) }

// JSON decodes r.Body as JSON into dest and runs validation.
// The body is capped at MAX_BODY_BYTES (default 4 MB).
// Returns (errs, nil) when there are validation failures.
// Returns (nil, err) when the body is malformed JSON or too large.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	dec := json.NewDecoder(r.Body)
	if err = dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body is empty")
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: unexpected data after the object")
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}

// File returns the multipart file under field. The request is capped at
// MAX_UPLOAD_BYTES (default 10 MB). The caller closes the file.
func File(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes())
	if err := r.ParseMultipartForm(maxUploadBytes()); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, fmt.Errorf("upload too large (max %d bytes)", maxErr.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, ErrNoFile
		}
		return nil, nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	f, h, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, ErrNoFile
	}
	return f, h, err
}
