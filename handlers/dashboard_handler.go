package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/dak-console/internal/capability"
)

// DashboardView lists the panels the caller may open and which one is active.
type DashboardView struct {
	Panels []capability.Panel `json:"panels"`
	Active string             `json:"active"`
}

// DashboardHandler serves the navigation filter
type DashboardHandler struct {
	resolver *capability.Resolver
	logger   *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(resolver *capability.Resolver, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{resolver: resolver, logger: logger}
}

// HandleDashboard handles GET /api/dashboard?panel=
// A requested panel the caller cannot see yields an empty active key.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}

	visible := h.resolver.VisiblePanels(h.resolver.Panels(), s)
	writeOK(w, h.logger, DashboardView{
		Panels: visible,
		Active: capability.ActivePanel(visible, r.URL.Query().Get("panel")),
	})
}
