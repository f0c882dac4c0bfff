package server

import (
	"encoding/json"
	"errors"
	"net/http"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/store"
)

type errorBody struct {
	Error     errorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

type errorDetail struct {
	Code    wkerrors.Code `json:"code"`
	Message string        `json:"message"`
}

// statusOf maps an error to its HTTP status and code.
func statusOf(err error) (int, wkerrors.Code) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, wkerrors.ErrCodeInvalidInput
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, wkerrors.ErrCodeNotFound
	}

	code := wkerrors.GetCode(err)
	switch code {
	case wkerrors.ErrCodeDanglingEdge:
		return http.StatusUnprocessableEntity, code
	case wkerrors.ErrCodeNotFound, wkerrors.ErrCodeFileNotFound:
		return http.StatusNotFound, code
	case wkerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented, code
	case "":
		return http.StatusInternalServerError, wkerrors.ErrCodeInternal
	}
	if wkerrors.IsInputError(err) {
		return http.StatusBadRequest, code
	}
	return http.StatusInternalServerError, code
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	msg := wkerrors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "request_id", RequestIDFrom(r.Context()))
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{
		Error:     errorDetail{Code: code, Message: msg},
		RequestID: RequestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
