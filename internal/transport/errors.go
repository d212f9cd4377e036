package transport

import (
	"errors"
	"net/http"

	"community-portal/internal/cart"
	"community-portal/internal/catalog"
	"community-portal/internal/checkout"
	"community-portal/internal/middleware"
	"community-portal/internal/portal"
	"community-portal/internal/repository"
	"community-portal/internal/service"
	"community-portal/internal/visitor"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// failureMessages replaces the generic 500 message for operations the
// visitor can simply retry.
var failureMessages = map[string]string{
	"place_order": "error processing order, try again",
}

// statusFor maps domain errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrVariantNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, service.ErrCartLineNotFound),
		errors.Is(err, service.ErrUnknownRecordKind):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrVariantRequired),
		errors.Is(err, catalog.ErrProductUnavailable),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrShippingUnresolved),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrSelfTransfer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, visitor.ErrNotVerified),
		errors.Is(err, service.ErrVisitorRequired):
		return http.StatusUnauthorized
	case errors.Is(err, visitor.ErrInvalidTransition),
		errors.Is(err, repository.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, portal.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err in the JSON error envelope. Upstream business
// errors keep their message and field errors; internal errors are logged
// and hidden behind a generic message.
func respondError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	var apiErr *portal.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		logger.Debug("Upstream rejected request", zap.String("op", op), zap.Error(err))
		var details map[string]interface{}
		if len(apiErr.Errors) > 0 {
			details = map[string]interface{}{"errors": apiErr.Errors}
		}
		middleware.RespondWithErrorDetails(w, status, apiErr.Error(), details)
		return
	}

	var lineErr *checkout.LineError
	if errors.As(err, &lineErr) {
		middleware.RespondWithErrorDetails(w, statusFor(lineErr.Err), lineErr.Error(), map[string]interface{}{
			"product_id": lineErr.ProductID.String(),
		})
		return
	}

	status := statusFor(err)
	switch {
	case status == http.StatusInternalServerError:
		logger.Error("Request failed", zap.String("op", op), zap.Error(err))
		message, ok := failureMessages[op]
		if !ok {
			message = "internal server error"
		}
		middleware.RespondWithError(w, status, message)
	case status == http.StatusBadGateway:
		logger.Warn("Upstream unreachable", zap.String("op", op), zap.Error(err))
		middleware.RespondWithError(w, status, portal.ErrNetwork.Error())
	default:
		logger.Debug("Request rejected", zap.String("op", op), zap.Error(err))
		middleware.RespondWithError(w, status, rootMessage(err))
	}
}

// rootMessage returns the message of the sentinel at the bottom of a wrap chain
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
