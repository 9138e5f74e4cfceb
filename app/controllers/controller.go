// Package controllers turns HTTP requests into service calls and service
// results into JSON envelopes.
package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// actor returns who the request runs as.
func actor(c *ctx.Context) services.Actor {
	return services.ActorFrom(c.Context())
}

// fail maps a service error onto the response.
func fail(c *ctx.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		if _, ok := verr.Fields["file"]; ok && len(verr.Fields) == 1 {
			c.Error(http.StatusBadRequest, verr.Fields["file"])
			return
		}
		c.ValidationError(verr.Fields)
	case errors.Is(err, services.ErrValidation):
		c.Error(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrNotFound):
		c.NotFound()
	case errors.Is(err, services.ErrInvalidCredentials):
		c.Unauthorized("Invalid username or password.")
	case errors.Is(err, services.ErrPermissionDenied):
		if !actor(c).Authenticated {
			c.Unauthorized()
			return
		}
		c.Forbidden()
	case errors.Is(err, services.ErrTransport):
		logger.WithCtx(c.Context()).Error("notification transport failed", "error", err)
		c.Error(http.StatusBadGateway, "The notification could not be delivered.")
	default:
		logger.WithCtx(c.Context()).Error("request failed", "error", err)
		c.Error(http.StatusInternalServerError, "Internal server error")
	}
}

// upload reads the multipart file under field. A response has been sent
// when ok is false.
func upload(c *ctx.Context, field string) (up services.Upload, closeFn func(), ok bool) {
	f, h, ok := c.FormFile(field)
	if !ok {
		return services.Upload{}, nil, false
	}
	return services.Upload{
		Filename:    h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Body:        f,
	}, func() { _ = f.Close() }, true
}
