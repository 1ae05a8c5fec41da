// internal/api/respond.go
//
// JSON codec and the single error-to-status mapping for the HTTP API.
//
// Context
// -------
// Packages below the API return typed errors (sentinels and
// *schema.ValidationError).  writeError resolves them against errorCases
// once, in order, so every handler answers the same status and body for
// the same failure.  Anything unmatched is a 500; its message is logged
// and echoed.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/bistro/internal/gateway"
	"github.com/yanizio/bistro/internal/schema"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// errorCase maps a sentinel to a status and fixed message.
type errorCase struct {
	err     error
	status  int
	message string
}

var errorCases = []errorCase{
	{gateway.ErrLoginRequired, http.StatusForbidden, "Login required."},
	{gateway.ErrForbidden, http.StatusForbidden, "Not allowed."},
	{gateway.ErrNotFound, http.StatusNotFound, "Not found."},
	{schema.ErrUnknownTable, http.StatusNotFound, "Unknown table."},
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps err to its HTTP form.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, c := range errorCases {
		if errors.Is(err, c.err) {
			writeMessage(w, c.status, c.message)
			return
		}
	}

	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		writeMessage(w, http.StatusBadRequest, ve.Error())
		return
	}

	zap.L().Error("request failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeMessage(w, http.StatusInternalServerError, err.Error())
}

// decodeObject reads a JSON object body.  Numbers stay json.Number so
// integer columns keep full precision.  An empty body yields an empty map.
func decodeObject(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, schema.Invalid("", "malformed JSON body: %v", err)
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}
