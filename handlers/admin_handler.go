package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/middleware"
	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services"
	"github.com/upb/dak-console/services/reports"
	"github.com/upb/dak-console/utils"
)

// AdminHandler handles user, role, permission and group administration
type AdminHandler struct {
	api      AdminAPI
	resolver *capability.Resolver
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(api AdminAPI, resolver *capability.Resolver, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{api: api, resolver: resolver, logger: logger}
}

// HandleListUsers handles GET /api/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	users, err := h.api.Users(r.Context(), s.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, users)
}

// HandleCreateUser handles POST /api/users
func (h *AdminHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req models.CreateUserRequest
	if err := utils.DecodeAndValidate(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var user *models.User
	err := exclusive(r, entityUser+req.Email, func() error {
		var err error
		user, err = h.api.CreateUser(r.Context(), s.Token, &req)
		return err
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Info("user created",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("email", req.Email))
	if err := utils.WriteCreated(w, user); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleListRoles handles GET /api/roles
func (h *AdminHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	roles, err := h.api.Roles(r.Context(), s.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, reports.VisibleRoles(h.resolver.Roles(), s, roles))
}

type assignRoleBody struct {
	RoleID string `json:"roleId"`
}

// HandleAssignRole handles PUT /api/users/{id}/role. Callers may only assign
// roles they are able to list.
func (h *AdminHandler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var body assignRoleBody
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	req := models.AssignRoleRequest{UserID: chi.URLParam(r, "id"), RoleID: body.RoleID}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	roles, err := h.api.Roles(r.Context(), s.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	if !containsRole(reports.VisibleRoles(h.resolver.Roles(), s, roles), req.RoleID) {
		h.logger.Warn("role assignment outside caller's range",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("role_id", req.RoleID),
			zap.String("caller_role", s.Role))
		HandleServiceError(w, r, services.ErrForbidden, h.logger)
		return
	}

	var msg string
	err = exclusive(r, entityUser+req.UserID, func() error {
		var err error
		msg, err = h.api.AssignRole(r.Context(), s.Token, &req)
		return err
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeMessage(w, h.logger, msg, nil)
}

func containsRole(roles []models.Role, id string) bool {
	for _, r := range roles {
		if r.ID == id {
			return true
		}
	}
	return false
}

// HandleResetPassword handles POST /api/users/{id}/reset-password
func (h *AdminHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "id")

	var msg string
	err := exclusive(r, entityUser+userID, func() error {
		var err error
		msg, err = h.api.ResetPassword(r.Context(), s.Token, userID)
		return err
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeMessage(w, h.logger, msg, nil)
}

// HandleListPermissions handles GET /api/permissions
func (h *AdminHandler) HandleListPermissions(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	perms, err := h.api.AllPermissions(r.Context(), s.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, perms)
}

// HandleGetUserPermissions handles GET /api/users/{id}/permissions
func (h *AdminHandler) HandleGetUserPermissions(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	perms, err := h.api.UserPermissions(r.Context(), s.Token, chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, models.NewPermissionSet(perms...).Tags())
}

// HandleSetUserPermissions handles PUT /api/users/{id}/permissions.
// Tags are normalized and deduplicated before they are sent.
func (h *AdminHandler) HandleSetUserPermissions(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "id")
	var req models.UserPermissionsRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	tags := models.NewPermissionSet(req.Permissions...).Tags()

	var msg string
	err := exclusive(r, entityUser+userID, func() error {
		var err error
		msg, err = h.api.SetUserPermissions(r.Context(), s.Token, userID, tags)
		return err
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Info("user permissions replaced",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("user_id", userID),
		zap.Strings("permissions", tags))
	writeMessage(w, h.logger, msg, tags)
}

// HandleListGroups handles GET /api/groups
func (h *AdminHandler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	groups, err := h.api.Groups(r.Context(), s.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, reports.VisibleGroups(h.resolver.Roles(), s, groups))
}

// HandleUpdateGroup handles PUT /api/groups
func (h *AdminHandler) HandleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req models.UpdateGroupRequest
	if err := utils.DecodeAndValidate(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var msg string
	err := exclusive(r, entityUser+req.UserID, func() error {
		var err error
		msg, err = h.api.UpdateGroup(r.Context(), s.Token, &req)
		return err
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeMessage(w, h.logger, msg, nil)
}
