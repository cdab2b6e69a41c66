package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openpair/chess-tournaments/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message interface{}) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, message interface{}) {
	errorResponse(w, r, http.StatusUnprocessableEntity, message)
}

func lockedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusLocked, message)
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	idStr := chi.URLParam(r, param)
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s URL parameter", param)
	}
	return id, nil
}

func getRoundFromURL(r *http.Request) (int, error) {
	roundStr := chi.URLParam(r, "round")
	round, err := strconv.Atoi(roundStr)
	if err != nil || round < 1 {
		return 0, errors.New("invalid round URL parameter")
	}
	return round, nil
}

// mapServiceErrorToHTTP translates service-layer errors into HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var prereqErr *services.PrerequisiteNotMetError
	var incompleteErr *services.IncompleteRoundError
	var validationErr *services.ValidationError

	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrSectionNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrPairingNotFound),
		errors.Is(err, services.ErrPrizeNotFound),
		errors.Is(err, services.ErrRoundNotGenerated),
		errors.Is(err, services.ErrMergeSourceMissing),
		errors.Is(err, services.ErrMergeDestinationMissing):
		notFoundResponse(w, r)

	// Ordering prerequisites and in-flight operations.
	case errors.As(err, &prereqErr):
		conflictResponse(w, r, jsonResponse{
			"message":    prereqErr.Error(),
			"round":      prereqErr.Round,
			"unresolved": prereqErr.Unresolved,
		})
	case errors.As(err, &incompleteErr):
		conflictResponse(w, r, jsonResponse{
			"message":   incompleteErr.Error(),
			"round":     incompleteErr.Round,
			"remaining": incompleteErr.Remaining,
		})
	case errors.Is(err, services.ErrRoundAlreadyPaired),
		errors.Is(err, services.ErrMergeNameConflict),
		errors.Is(err, services.ErrTeamNameConflict):
		conflictResponse(w, r, err.Error())
	case errors.Is(err, services.ErrSectionLocked):
		lockedResponse(w, r, err.Error())

	// Structural pairing defects carry per-board details.
	case errors.As(err, &validationErr):
		details := make([]jsonResponse, 0, len(validationErr.Errors))
		for _, se := range validationErr.Errors {
			details = append(details, jsonResponse{
				"code":    se.Code,
				"board":   se.Board,
				"message": se.Message,
			})
		}
		unprocessableResponse(w, r, jsonResponse{"errors": details})

	// Business-rule violations.
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrTournamentNameRequired),
		errors.Is(err, services.ErrTournamentInvalidRounds),
		errors.Is(err, services.ErrTournamentInvalidStatus),
		errors.Is(err, services.ErrPlayerNameRequired),
		errors.Is(err, services.ErrPlayerWithdrawn),
		errors.Is(err, services.ErrRoundOutOfRange),
		errors.Is(err, services.ErrManualReasonRequired),
		errors.Is(err, services.ErrInvalidResult),
		errors.Is(err, services.ErrResultOnBye),
		errors.Is(err, services.ErrUnsupportedPairingMethod),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrPrizePlaceInvalid),
		errors.Is(err, services.ErrPrizeDescriptionRequired),
		errors.Is(err, services.ErrMergeTooFewSources),
		errors.Is(err, services.ErrMergeDestinationIsSource),
		errors.Is(err, services.ErrMergeDuplicateSource):
		badRequestResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}
