package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"bookstore/internal/apperror"
	"bookstore/package/logger"
)

type Handler interface {
	Register(router *httprouter.Router)
}

// StatusFor maps a service error to the response status:
// unknown entity is 404, validation and generic failures are 400 and
// anything else is a 500.
func StatusFor(err error) int {
	kind, ok := apperror.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if kind == apperror.KindUnknownEntity {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		WriteStatus(w, r, http.StatusInternalServerError, "While making JSON for respond: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.Log.Info("While sending JSON for respond: " + err.Error())
	}
}

// WriteError answers with the status for err and its message as the body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	WriteStatus(w, r, StatusFor(err), err.Error())
}

func WriteStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	http.Error(w, message, status)

	entry := logger.Log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})
	switch {
	case status >= http.StatusInternalServerError:
		entry.Error("Internal error: " + message)
	case status == http.StatusNotFound:
		entry.Info("Not found: " + message)
	default:
		entry.Info("Bad request: " + message)
	}
}

// DecodeJSON reads the request body into dst. Unknown fields and trailing
// data are rejected as validation errors.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("empty request body")
		}
		return apperror.Wrap(apperror.KindValidation, err, "malformed request body")
	}
	if dec.More() {
		return apperror.Validation("malformed request body: unexpected data after JSON value")
	}
	return nil
}

// Filter turns the query string into a list filter. Only the first value of
// a repeated parameter is used.
func Filter(r *http.Request) map[string]any {
	query := r.URL.Query()
	filter := make(map[string]any, len(query))
	for key, values := range query {
		if len(values) > 0 {
			filter[key] = values[0]
		}
	}
	return filter
}
