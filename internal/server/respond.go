package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgtrend/pkg/errors"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes v with status. A value that cannot be encoded is
// reported as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{Code: "INTERNAL_ERROR", Message: "encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// writeError maps err to a status and writes it. Uncoded errors are reported
// as internal errors without exposing their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		log.FromContext(r.Context()).Error("unhandled error", "err", err)
		writeErrorCode(w, http.StatusInternalServerError, string(errors.ErrCodeInternal), "internal error")
		return
	}
	status := errors.HTTPStatus(code)
	if status >= 500 {
		log.FromContext(r.Context()).Error("request failed", "code", code, "err", err)
	}
	if code == errors.ErrCodeRateLimited {
		w.Header().Set("Retry-After", "60")
	}
	writeErrorCode(w, status, string(code), errors.UserMessage(err))
}

// decodeJSON reads a JSON body into v, rejecting unknown fields and bodies
// larger than maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
