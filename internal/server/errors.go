package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/formulary/internal/auth"
	"github.com/wolfeidau/formulary/internal/catalogue"
	"github.com/wolfeidau/formulary/internal/store"
	"github.com/wolfeidau/formulary/internal/trust"
	"github.com/wolfeidau/formulary/internal/variable"
)

// badRequestError marks malformed client input.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string {
	return e.msg
}

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps err to a status code. Errors are surfaced verbatim except
// for unexpected failures, which are logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidPlugin *trust.InvalidPluginError
		configErr     *catalogue.ConfigurationError
		duplicate     *variable.DuplicateTokenError
		badReq        *badRequestError
		tooLarge      *http.MaxBytesError
	)

	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &invalidPlugin):
		status = http.StatusUnprocessableEntity
		resp.Stage = string(invalidPlugin.Stage)
	case errors.As(err, &configErr), errors.As(err, &badReq):
		status = http.StatusBadRequest
	case errors.As(err, &duplicate):
		status = http.StatusConflict
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, auth.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrOrganizationNotFound),
		errors.Is(err, store.ErrHeadingNotFound),
		errors.Is(err, store.ErrPackageItemNotFound),
		errors.Is(err, catalogue.ErrUnknownFunction):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		resp.Error = "internal server error"
	}

	writeJSON(w, r, status, resp)
}
