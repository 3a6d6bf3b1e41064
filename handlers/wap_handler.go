package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services/reports"
	"github.com/upb/dak-console/utils"
)

// WAPHandler handles work allocation plans
type WAPHandler struct {
	api      WAPAPI
	resolver *capability.Resolver
	logger   *zap.Logger
}

// NewWAPHandler creates a new WAPHandler
func NewWAPHandler(api WAPAPI, resolver *capability.Resolver, logger *zap.Logger) *WAPHandler {
	return &WAPHandler{api: api, resolver: resolver, logger: logger}
}

// HandleList handles GET /api/waps
func (h *WAPHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	waps, err := h.api.WAPs(r.Context(), s.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, waps)
}

// HandleCreate handles POST /api/waps
func (h *WAPHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req models.WAPRequest
	if err := utils.DecodeAndValidate(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var msg string
	err := exclusive(r, entityWAP+"new:"+req.UserID, func() error {
		var err error
		msg, err = h.api.CreateWAP(r.Context(), s.Token, &req)
		return err
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeMessage(w, h.logger, msg, nil)
}

// HandleUpdate handles PUT /api/waps/{id}
func (h *WAPHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	wapID := chi.URLParam(r, "id")
	var req models.WAPRequest
	if err := utils.DecodeAndValidate(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var msg string
	err := exclusive(r, entityWAP+wapID, func() error {
		var err error
		msg, err = h.api.UpdateWAP(r.Context(), s.Token, wapID, &req)
		return err
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeMessage(w, h.logger, msg, nil)
}

// HandleAssignable handles GET /api/waps/assignable
func (h *WAPHandler) HandleAssignable(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	users, err := h.api.Users(r.Context(), s.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, reports.AssignableUsers(h.resolver.Roles(), users))
}

// HandleMine handles GET /api/waps/mine
func (h *WAPHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	waps, err := h.api.MyWAPs(r.Context(), s.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, waps)
}

type submitBody struct {
	SubmitDate string `json:"submitDate"`
}

// HandleSubmit handles PUT /api/waps/mine/{id}
func (h *WAPHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	var body submitBody
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	req := models.WAPSubmitRequest{WapID: chi.URLParam(r, "id"), SubmitDate: body.SubmitDate}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var msg string
	err := exclusive(r, entityWAP+req.WapID, func() error {
		var err error
		msg, err = h.api.SubmitWAP(r.Context(), s.Token, &req)
		return err
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeMessage(w, h.logger, msg, nil)
}
