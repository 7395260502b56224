package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/domain"
	"github.com/stagelink/marketplace-api/internal/service"
)

var validate = validator.New()

// timeNow is swapped out in tests
var timeNow = time.Now

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a validation error response with per-field messages
func respondValidationError(w http.ResponseWriter, err error) {
	fieldErrors := make(map[string]string)
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			fieldErrors[toJSONFieldName(fe.Field())] = formatValidationError(fe)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: fieldErrors,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "uuid":
		return "Must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// respondServiceError maps service layer errors to HTTP responses
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOfferNotFound),
		errors.Is(err, service.ErrEventNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrWrongRole):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotYourTurn),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrOfferNotAccepted),
		errors.Is(err, service.ErrNotExpirable):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStaleWrite):
		respondStaleWrite(w, err)
	default:
		respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// respondStaleWrite tells the client to reload and retry with a fresh version
func respondStaleWrite(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeStaleWrite,
		Title:  "Conflict",
		Status: http.StatusConflict,
		Detail: err.Error(),
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	default:
		return domain.ErrorTypeInternal
	}
}

// errBadBody marks an unparseable request body
var errBadBody = errors.New("invalid request body")

// decodeOptionalBody decodes a JSON body that may legitimately be empty,
// then validates the result
func decodeOptionalBody(r *http.Request, target interface{}) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(target); err != nil && err != io.EOF {
			return errBadBody
		}
	}
	return validate.Struct(target)
}

// respondValidationOrService routes an error from a handler callback to the
// right responder: body errors, field validation errors, or service errors
func respondValidationOrService(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadBody) {
		respondWithError(w, http.StatusBadRequest, errBadBody.Error())
		return
	}
	if ve, ok := err.(validator.ValidationErrors); ok {
		respondValidationError(w, ve)
		return
	}
	respondServiceError(w, err)
}

// pathUUID parses a UUID path parameter
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %q is not a UUID", name, raw)
	}
	return id, nil
}
