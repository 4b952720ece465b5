package server

import (
	"encoding/json"
	"net/http"
	"strings"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func notFound(path string) error {
	return perrors.New(perrors.ErrCodeNotFound, "no route for %s", path)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code perrors.Code) int {
	switch {
	case code == perrors.ErrCodeNotFound || code == perrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case code == perrors.ErrCodeArityMismatch,
		strings.HasPrefix(string(code), "INVALID_"),
		strings.HasPrefix(string(code), "UNKNOWN_"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Internal failures hide their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := perrors.GetCode(err)
	if code == "" {
		code = perrors.ErrCodeInternal
	}
	status := StatusFor(code)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{
		Code:      string(code),
		Message:   msg,
		RequestID: RequestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
