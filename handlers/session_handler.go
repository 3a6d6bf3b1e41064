package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/internal/session"
	"github.com/upb/dak-console/middleware"
	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services"
	"github.com/upb/dak-console/utils"
)

// SessionView is the session state exposed to the browser. The token never leaves the server.
type SessionView struct {
	Authenticated bool            `json:"authenticated"`
	Loading       bool            `json:"loading"`
	Session       *models.Session `json:"session,omitempty"`
	Panels        []string        `json:"panels"`
}

// SessionHandler handles login, logout and the current-session query
type SessionHandler struct {
	api      SessionAPI
	resolver *capability.Resolver
	logger   *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(api SessionAPI, resolver *capability.Resolver, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{api: api, resolver: resolver, logger: logger}
}

func (h *SessionHandler) view(s *models.Session, loading bool) SessionView {
	keys := []string{}
	if s != nil && !loading {
		for _, p := range h.resolver.VisiblePanels(h.resolver.Panels(), s) {
			keys = append(keys, p.Key)
		}
	}
	return SessionView{
		Authenticated: s != nil && !loading,
		Loading:       loading,
		Session:       s,
		Panels:        keys,
	}
}

// HandleLogin handles POST /api/session/login
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry := middleware.GetClientFromContext(ctx)
	if entry == nil {
		HandleServiceError(w, r, services.ErrSessionStorage, h.logger)
		return
	}

	var req models.LoginRequest
	if err := utils.DecodeAndValidate(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	resp, err := h.api.Login(ctx, &req)
	if err != nil {
		h.logger.Info("login failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
		if services.IsUnauthorizedError(err) {
			_ = utils.WriteError(w, http.StatusUnauthorized, services.ErrInvalidCredentials.Message, nil)
			return
		}
		HandleServiceError(w, r, err, h.logger)
		return
	}

	if err := entry.Holder.SetSession(ctx, resp.Session()); err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			_ = utils.WriteError(w, http.StatusUnauthorized, services.ErrInvalidCredentials.Message, nil)
			return
		}
		HandleServiceError(w, r, services.WrapInternal("failed to store session", err), h.logger)
		return
	}

	s, loading := entry.Holder.Current()
	h.logger.Info("login succeeded",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("role", s.Role))
	writeOK(w, h.logger, h.view(s, loading))
}

// HandleLogout handles POST /api/session/logout
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if entry := middleware.GetClientFromContext(r.Context()); entry != nil {
		if err := entry.Holder.Logout(r.Context()); err != nil {
			HandleServiceError(w, r, services.WrapInternal("failed to clear session", err), h.logger)
			return
		}
	}
	writeOK(w, h.logger, h.view(nil, false))
}

// HandleCurrent handles GET /api/session
func (h *SessionHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSessionFromContext(r.Context())
	loading := false
	if entry := middleware.GetClientFromContext(r.Context()); entry != nil {
		_, loading = entry.Holder.Current()
	}
	writeOK(w, h.logger, h.view(s, loading))
}
