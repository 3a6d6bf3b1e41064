package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/dak-console/internal/session"
	"github.com/upb/dak-console/middleware"
	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services"
	"github.com/upb/dak-console/utils"
)

// ProfileHandler lets the signed-in user edit their own account
type ProfileHandler struct {
	api    ProfileAPI
	logger *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(api ProfileAPI, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{api: api, logger: logger}
}

// HandleUpdateProfile handles PUT /api/me. On success the held session
// takes the new name and email.
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := utils.DecodeAndValidate(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	msg, err := h.api.UpdateProfile(r.Context(), s.Token, &req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	var updated *models.Session
	if entry := middleware.GetClientFromContext(r.Context()); entry != nil {
		err := entry.Holder.UpdateProfile(r.Context(), req.Name, req.Email)
		if errors.Is(err, session.ErrNoSession) {
			// logged out while the backend call was running
			HandleServiceError(w, r, services.ErrUnauthorized, h.logger)
			return
		}
		if err != nil {
			HandleServiceError(w, r, services.WrapInternal("failed to update session", err), h.logger)
			return
		}
		updated, _ = entry.Holder.Current()
	}
	writeMessage(w, h.logger, msg, updated)
}

// HandleChangePassword handles PUT /api/me/password
func (h *ProfileHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if err := utils.DecodeAndValidate(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	msg, err := h.api.ChangePassword(r.Context(), s.Token, &req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	h.logger.Info("password changed",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
	writeMessage(w, h.logger, msg, nil)
}
