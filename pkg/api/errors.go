package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/nextslide/deckengine/pkg/concurrency"
	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/nextslide/deckengine/pkg/pauseresume"
	"github.com/nextslide/deckengine/pkg/persistence"
)

// mapError maps a domain error to a status code and wire response. Handlers
// never return it directly; they call respondError, which keeps the JSON
// shape consistent with the bad-request/not-found responses handlers write
// inline for request-validation failures.
func mapError(err error) (int, *ErrorResponse) {
	var deckErr *errs.DeckError
	if errors.As(err, &deckErr) {
		switch deckErr.Kind {
		case errs.KindConfigInvalid, errs.KindConfigMissing:
			return http.StatusBadRequest, &ErrorResponse{Code: string(deckErr.Kind), Message: deckErr.Error()}
		case errs.KindOrchestrationDeck:
			return http.StatusConflict, &ErrorResponse{Code: string(deckErr.Kind), Message: deckErr.Error()}
		default:
			slog.Error("unexpected deck error", "kind", deckErr.Kind, "error", err)
			return http.StatusInternalServerError, &ErrorResponse{Code: "internal_error", Message: "internal server error"}
		}
	}

	var busyErr *concurrency.ErrDeckBusy
	if errors.As(err, &busyErr) {
		return http.StatusConflict, &ErrorResponse{Code: "deck_busy", Message: busyErr.Error()}
	}
	if errors.Is(err, persistence.ErrDeckNotFound) {
		return http.StatusNotFound, &ErrorResponse{Code: "deck_not_found", Message: "deck not found"}
	}
	if errors.Is(err, pauseresume.ErrNoSnapshot) {
		return http.StatusNotFound, &ErrorResponse{Code: "no_snapshot", Message: "no resumable generation for that id"}
	}
	if errors.Is(err, pauseresume.ErrNotPaused) {
		return http.StatusConflict, &ErrorResponse{Code: "not_paused", Message: err.Error()}
	}

	slog.Error("unexpected API error", "error", err)
	return http.StatusInternalServerError, &ErrorResponse{Code: "internal_error", Message: "internal server error"}
}

// respondError writes err to c as a JSON ErrorResponse with the status mapError chose.
func respondError(c *echo.Context, err error) error {
	status, resp := mapError(err)
	return c.JSON(status, resp)
}

// badRequest writes a 400 ErrorResponse for request-validation failures that
// never reach mapError (missing path params, malformed bodies).
func badRequest(c *echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, &ErrorResponse{Code: "bad_request", Message: message})
}
