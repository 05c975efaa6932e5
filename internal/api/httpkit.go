package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ivlev/scene2video/internal/errs"
)

// maxBodyBytes bounds a render request body.
const maxBodyBytes = 1 << 20

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	var env ErrorEnvelope
	env.Error.Code = code
	env.Error.Message = msg
	env.Error.Details = details
	writeJSON(w, status, env)
}

// writeError maps a pipeline error onto its status and code.
func writeError(w http.ResponseWriter, err error) {
	var details map[string]any
	var coded *errs.Error
	if errors.As(err, &coded) {
		details = coded.Fields
	}
	writeErr(w, errs.GetHTTPStatus(err), string(errs.GetCode(err)), err.Error(), details)
}
