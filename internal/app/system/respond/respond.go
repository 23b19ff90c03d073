// Package respond writes JSON responses and errors for the API handlers.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/app/system/limits"
	"go.uber.org/zap"
)

// devMode controls whether internal error detail is exposed to callers.
var devMode bool

// SetDevMode enables detailed internal errors. Call once at startup.
func SetDevMode(on bool) { devMode = on }

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with status 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Error renders err as {status, message}. Status is "failed" for 4xx and
// "error" for 5xx. Internal errors are logged and, outside dev mode,
// replaced with a generic message.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	code := apperr.Status(kind)

	body := errorBody{Status: "failed", Message: apperr.Message(err)}
	if code >= 500 {
		body.Status = "error"
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
		if devMode {
			body.Error = err.Error()
		} else {
			body.Message = "Something went wrong"
		}
	}
	JSON(w, code, body)
}

// Decode reads a JSON body into v, reporting malformed input as a
// validation error.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	body := http.MaxBytesReader(nil, r.Body, limits.MaxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	return nil
}
