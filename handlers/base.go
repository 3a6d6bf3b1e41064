package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/dak-console/middleware"
	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services"
	"github.com/upb/dak-console/utils"
)

// In-flight key namespaces, one per entity kind.
const (
	entityUser   = "user:"
	entityWAP    = "wap:"
	entityUpload = "upload:"
)

// requireSession returns the request's session, writing 401 when there is none.
// Routes normally guard this already; handlers still check.
func requireSession(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	s := middleware.GetSessionFromContext(r.Context())
	if s == nil {
		_ = utils.WriteUnauthorized(w, "")
		return nil, false
	}
	return s, true
}

// exclusive runs fn unless a request for the same entity is already in
// flight on this client, in which case it returns ErrActionInFlight.
func exclusive(r *http.Request, key string, fn func() error) error {
	entry := middleware.GetClientFromContext(r.Context())
	if entry == nil {
		return fn()
	}
	if !entry.InFlight.Begin(key) {
		return services.ErrActionInFlight
	}
	defer entry.InFlight.End(key)
	return fn()
}

// writeMessage writes the backend acknowledgement or logs the write failure.
func writeMessage(w http.ResponseWriter, logger *zap.Logger, message string, data interface{}) {
	if err := utils.WriteMessage(w, message, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

// writeOK writes data or logs the write failure.
func writeOK(w http.ResponseWriter, logger *zap.Logger, data interface{}) {
	if err := utils.WriteOK(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
