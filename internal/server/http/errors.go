package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/filex"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
)

const (
	msgNoGame       = "No game has been set. Please upload a ROM first."
	msgNoStore      = "No Delta Emulator SQLite file uploaded for the current game."
	msgNoCheats     = "No cheats found for this GameID."
	msgBadRequest   = "Invalid request data."
	msgGameIDNeeded = "GameID is required."
)

var (
	errNoFile   = errors.New("no file uploaded")
	errFileType = errors.New("invalid file format")
)

// statusFor maps service errors onto a status code and client message.
// fallback is used for errors the client cannot act on.
func statusFor(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, filex.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "File is too large."
	case errors.Is(err, common.ErrNoActiveGame):
		return http.StatusBadRequest, msgNoGame
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Session is no longer valid. Please upload a ROM again."
	case errors.Is(err, common.ErrExtraction), errors.Is(err, common.ErrTruncatedInput):
		return http.StatusBadRequest, "Failed to generate GameID. Ensure the ROM is valid."
	case errors.Is(err, common.ErrJoinMismatch):
		return http.StatusBadRequest, "Delta SQLite does not match the uploaded ROM's shasum."
	case errors.Is(err, common.ErrSchema):
		return http.StatusBadRequest, "Failed to parse Delta Emulator SQLite file."
	case errors.Is(err, common.ErrGameNotFound):
		return http.StatusBadRequest, "The current game is not present in the Delta Emulator SQLite file."
	case errors.Is(err, common.ErrNoStore):
		return http.StatusBadRequest, msgNoStore
	case errors.Is(err, common.ErrInputValidation):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, fallback
	}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), fallback, "error", err)
	} else {
		h.logger.Warn(r.Context(), msg, "error", err)
	}
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
