package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/dak-console/middleware"
	"github.com/upb/dak-console/services"
	"github.com/upb/dak-console/utils"
)

// HandleServiceError maps domain errors to HTTP responses. An unauthorized
// error from the backend means the held token is no longer accepted, so the
// client's session is logged out before the 401 is written.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)
	details := services.GetErrorDetails(err)
	message := errorMessage(err)

	var writeErr error
	switch {
	case services.IsUnauthorizedError(err):
		if entry := middleware.GetClientFromContext(ctx); entry != nil {
			if s, _ := entry.Holder.Current(); s != nil {
				logger.Info("backend rejected session, logging out",
					zap.String("request_id", requestID),
					zap.String("client_id", entry.ClientID))
				if lerr := entry.Holder.Logout(ctx); lerr != nil {
					logger.Warn("logout failed", zap.String("request_id", requestID), zap.Error(lerr))
				}
			}
		}
		writeErr = utils.WriteUnauthorized(w, message)

	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, message)

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, details)

	case services.IsForbiddenError(err):
		writeErr = utils.WriteForbidden(w, message)

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, message, details)

	case services.IsExternalError(err):
		logger.Warn("dak backend error",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeErr = utils.WriteBadGateway(w, message, details)

	case services.IsInternalError(err):
		logger.Error("internal server error",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.String("request_id", requestID),
			zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// errorMessage returns the user-facing part of a domain error.
func errorMessage(err error) string {
	var de *services.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// HandleValidationError handles errors from request decoding and validation
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
