package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
)

var errMalformedBody = errors.New("malformed request body")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if body == nil {
		return
	}

	_ = json.NewEncoder(w).Encode(body)
}

// statusOf maps an error kind onto an HTTP status.
func statusOf(err error) int {
	if errors.Is(err, errMalformedBody) {
		return http.StatusBadRequest
	}

	switch apperror.KindOf(err) {
	case apperror.ErrValidation:
		return http.StatusUnprocessableEntity
	case apperror.ErrState:
		return http.StatusConflict
	case apperror.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperror.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(log *slog.Logger, w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}

	log.Debug("request rejected", "status", status, "error", err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Join(errMalformedBody, err)
	}

	return nil
}
