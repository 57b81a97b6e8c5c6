package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rogerio-castellano/stockroom/internal/apperrors"
	"github.com/rogerio-castellano/stockroom/internal/logger"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
	Details any            `json:"details,omitempty"`
}

// readJSON tries to read the body of a request and converts it into JSON
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1048576 // one megabyte
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to read JSON: %w", err)
	}

	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must have only a single json value")
	}

	return nil
}

// writeJSON takes a response status code and arbitrary data and writes a json response to the client
func writeJSON(w http.ResponseWriter, status int, data any, headers ...http.Header) error {
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if len(headers) > 0 {
		for key, value := range headers[0] {
			w.Header()[key] = value
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(out)
	if err != nil {
		return fmt.Errorf("failed to write to response: %w", err)
	}

	return nil
}

// WriteError maps err to its HTTP status and writes an ErrorResponse. Untyped
// errors become a generic 500 and are logged.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	typed := apperrors.As(err)
	if typed == nil {
		typed = apperrors.Wrap(apperrors.CodeInternal, err, "unexpected error")
	}
	meta := apperrors.MetadataFor(typed.Code())

	resp := ErrorResponse{Code: typed.Code(), Message: meta.PublicMessage}
	if meta.DetailsAllowed {
		resp.Message = typed.Message()
		resp.Details = typed.Details()
	}
	if meta.HTTPStatus >= http.StatusInternalServerError && log != nil {
		log.Error(r.Context(), "request failed", err)
	}
	_ = writeJSON(w, meta.HTTPStatus, resp)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, s.log, err)
}

// invalidJSON reports a body that could not be decoded. Type mismatches name
// the offending field.
func (s *Server) invalidJSON(w http.ResponseWriter, r *http.Request, err error) {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		s.badRequest(w, r, "invalid input")
		return
	}

	detail := apperrors.FieldError{Field: typeErr.Field, Description: "has the wrong type"}
	switch typeErr.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		detail.Description = "must be an integer"
	case reflect.String:
		detail.Description = "must be a string"
	}
	s.fail(w, r, apperrors.New(apperrors.CodeValidation, detail.Field+" "+detail.Description).
		WithDetails([]apperrors.FieldError{detail}))
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	s.fail(w, r, apperrors.New(apperrors.CodeValidation, message))
}

func productID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.CodeValidation, "invalid product ID")
	}
	return id, nil
}
