package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/spf13/cast"
	"github.com/ukane-philemon/grades/internal/db"
	customerror "github.com/ukane-philemon/grades/internal/errors"
)

// handleError converts err into a user facing error. Anything that is not a
// known request or lookup failure is treated as a store error and logged.
func (s *Server) handleError(err error) customerror.Error {
	var userErr customerror.Error
	if errors.As(err, &userErr) {
		return userErr
	}

	switch {
	case errors.Is(err, db.ErrorInvalidRequest):
		return invalidArgument(err.Error())
	case errors.Is(err, db.ErrorNotFound):
		return &customerror.ErrorNotFound{}
	}

	s.log.Error("SERVER ERROR", "error", err)
	return &customerror.ErrorStore{Err: err}
}

// writeError writes the response for err. Not found responses are plain text,
// every other error is a JSON {"error": "..."} object.
func (s *Server) writeError(res http.ResponseWriter, err error) {
	userErr := s.handleError(err)

	var notFound *customerror.ErrorNotFound
	if errors.As(userErr, &notFound) {
		http.Error(res, userErr.Error(), userErr.StatusCode())
		return
	}

	writeJSON(res, userErr.StatusCode(), map[string]string{"error": userErr.Error()})
}

func writeJSON(res http.ResponseWriter, status int, v any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	_ = json.NewEncoder(res).Encode(v)
}

func invalidArgument(reason string) *customerror.ErrorInvalidArgument {
	return &customerror.ErrorInvalidArgument{Reason: reason}
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// decodeBody decodes the JSON request body into v.
func decodeBody(res http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(res, req.Body, maxBodyBytes)
	err := json.NewDecoder(req.Body).Decode(v)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return &customerror.ErrorBodyTooLarge{Limit: tooLarge.Limit}
	case errors.Is(err, io.EOF):
		return invalidArgument("missing request body")
	}

	return invalidArgument("invalid request body")
}

// decodeDocument decodes a request body that must be a JSON object. Fields
// are kept as sent.
func decodeDocument(res http.ResponseWriter, req *http.Request) (map[string]any, error) {
	var doc map[string]any
	if err := decodeBody(res, req, &doc); err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, invalidArgument("request body must be a JSON object")
	}

	return doc, nil
}

// storeContext is the context database calls run with. It keeps the request
// values but is not cancelled when the client goes away, so a write that was
// started is always allowed to finish.
func storeContext(req *http.Request) context.Context {
	return context.WithoutCancel(req.Context())
}

// numberParam converts a learner or class ID path or query value to a number.
// Surrounding whitespace is ignored, an empty value is 0 and anything that is
// not a number becomes NaN, which matches no grade record.
func numberParam(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	n, err := cast.ToFloat64E(value)
	if err != nil {
		return math.NaN()
	}

	return n
}

// optionalNumberQuery returns the numeric value of the query parameter key,
// or nil if it is missing or empty.
func optionalNumberQuery(req *http.Request, key string) *float64 {
	value := req.URL.Query().Get(key)
	if value == "" {
		return nil
	}

	n := numberParam(value)
	return &n
}
