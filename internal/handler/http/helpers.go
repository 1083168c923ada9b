package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/auth"
	"github.com/vasiliy-maslov/laundry-service/internal/catalog"
	"github.com/vasiliy-maslov/laundry-service/internal/customer"
	"github.com/vasiliy-maslov/laundry-service/internal/finance"
	"github.com/vasiliy-maslov/laundry-service/internal/inventory"
	"github.com/vasiliy-maslov/laundry-service/internal/order"
	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
	"github.com/vasiliy-maslov/laundry-service/internal/storage"
)

// maxUploadSize bounds multipart bodies carrying a photo, with room for
// the other form fields.
const maxUploadSize = storage.MaxUploadSize + 1<<20

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondWithServiceError maps a service error to its status and a message
// safe to show the client.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	code := mapErrorToStatusCode(err)
	message := fallback
	switch {
	case auth.Code(err) != "":
		message = auth.Message(err)
	case code != http.StatusInternalServerError:
		message = err.Error()
	}
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
	} else {
		log.Warn().Err(err).Int("status", code).Msg(fallback)
	}
	respondWithError(w, code, message)
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, customer.ErrCustomerNotFound),
		errors.Is(err, inventory.ErrItemNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, finance.ErrExpenseNotFound),
		errors.Is(err, finance.ErrIncomeNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound

	case errors.Is(err, auth.ErrEmailInUse),
		errors.Is(err, order.ErrConcurrentUpdate),
		errors.Is(err, order.ErrDuplicateOrderNumber):
		return http.StatusConflict

	case errors.Is(err, auth.ErrInvalidCredential),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized

	case errors.Is(err, auth.ErrUserDisabled):
		return http.StatusForbidden

	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, storage.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType

	case errors.Is(err, order.ErrInsufficientDeposit),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrUnitConfirmationRequired),
		errors.Is(err, order.ErrItemNotSellable),
		errors.Is(err, order.ErrNegativeTotal):
		return http.StatusUnprocessableEntity

	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, customer.ErrNameRequired),
		errors.Is(err, customer.ErrPhoneRequired),
		errors.Is(err, customer.ErrNegativeDeposit),
		errors.Is(err, customer.ErrInvalidTopUpAmount),
		errors.Is(err, customer.ErrLookupQueryTooShort),
		errors.Is(err, inventory.ErrNameRequired),
		errors.Is(err, inventory.ErrNegativeStock),
		errors.Is(err, inventory.ErrPriceRequired),
		errors.Is(err, inventory.ErrNegativePrice),
		errors.Is(err, catalog.ErrNameRequired),
		errors.Is(err, order.ErrCustomerRequired),
		errors.Is(err, order.ErrNoServiceLines),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidGoodsQuantity),
		errors.Is(err, order.ErrInvalidDateRange),
		errors.Is(err, pricing.ErrServiceRequired),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrNegativePrice),
		errors.Is(err, pricing.ErrInvalidUnit),
		errors.Is(err, pricing.ErrInvalidDiscount),
		errors.Is(err, pricing.ErrInvalidPayment),
		errors.Is(err, pricing.ErrInvalidUnitChoice),
		errors.Is(err, pricing.ErrNoConfirmationNeeded),
		errors.Is(err, finance.ErrInvalidAmount),
		errors.Is(err, finance.ErrNoteRequired),
		errors.Is(err, finance.ErrInvalidPeriod),
		errors.Is(err, finance.ErrInvalidRange):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate reads a JSON body into dst and validates it. On failure
// the response is already written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return false
	}
	return validateStruct(w, validate, dst)
}

func validateStruct(w http.ResponseWriter, validate *validator.Validate, v interface{}) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: formatValidationErrors(validationErrors),
		})
		return false
	}
	log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
	respondWithError(w, http.StatusInternalServerError, "Internal validation error")
	return false
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("Field '%s' is required", fe.Field())
		case "email":
			msg = fmt.Sprintf("Field '%s' must be a valid email address", fe.Field())
		case "min":
			if fe.Kind().String() == "string" {
				msg = fmt.Sprintf("Field '%s' must be at least %s characters long", fe.Field(), fe.Param())
			} else {
				msg = fmt.Sprintf("Field '%s' must be at least %s", fe.Field(), fe.Param())
			}
		case "gt":
			msg = fmt.Sprintf("Field '%s' must be greater than %s", fe.Field(), fe.Param())
		case "gte":
			msg = fmt.Sprintf("Field '%s' must be %s or more", fe.Field(), fe.Param())
		case "oneof":
			msg = fmt.Sprintf("Field '%s' must be one of: %s", fe.Field(), fe.Param())
		default:
			msg = fmt.Sprintf("Field '%s' failed on the '%s' rule", fe.Field(), fe.Tag())
		}
		details[fe.Field()] = msg
	}
	return details
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.FromString(raw)
	if err != nil {
		log.Warn().Err(err).Str(name, raw).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}

// currentSession returns the session the auth middleware attached. Routes
// mounted without the middleware get a 401.
func currentSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, auth.ErrInvalidToken.Message)
		return session.Session{}, false
	}
	return sess, true
}
