package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/dak-console/middleware"
	"github.com/upb/dak-console/services"
	"github.com/upb/dak-console/services/notifications"
	"github.com/upb/dak-console/utils"
)

// NotificationHandler serves the caller's notifications, on demand or as a stream
type NotificationHandler struct {
	api    NotificationAPI
	poller *notifications.Poller
	logger *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(api NotificationAPI, poller *notifications.Poller, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{api: api, poller: poller, logger: logger}
}

// HandleList handles GET /api/notifications
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	items, err := h.api.Notifications(r.Context(), s.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, notifications.NewSnapshot(items))
}

// HandleMarkSeen handles PUT /api/notifications/seen
func (h *NotificationHandler) HandleMarkSeen(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := h.api.MarkNotificationsSeen(r.Context(), s.Token); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleStream handles GET /api/notifications/stream as server-sent events.
// Each change is sent as a "notifications" event. When the session ends or
// the backend rejects it, a final "logout" event is sent. The stream stops
// when the client disconnects.
func (h *NotificationHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSession(w, r); !ok {
		return
	}
	entry := middleware.GetClientFromContext(r.Context())
	if entry == nil {
		HandleServiceError(w, r, services.ErrSessionStorage, h.logger)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		HandleServiceError(w, r, services.WrapInternal("streaming unsupported", nil), h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	token := func() (string, bool) {
		s, _ := entry.Holder.Current()
		if s == nil {
			return "", false
		}
		return s.Token, true
	}
	emit := func(snap notifications.Snapshot) error {
		return writeEvent(w, flusher, "notifications", snap)
	}

	requestID := middleware.GetRequestIDFromContext(r.Context())
	err := h.poller.Run(r.Context(), token, emit)
	switch {
	case err == nil:
		h.logger.Debug("notification stream closed", zap.String("request_id", requestID))
	case services.IsUnauthorizedError(err):
		if s, _ := entry.Holder.Current(); s != nil {
			if lerr := entry.Holder.Logout(r.Context()); lerr != nil {
				h.logger.Warn("logout failed", zap.String("request_id", requestID), zap.Error(lerr))
			}
		}
		_ = writeEvent(w, flusher, "logout", map[string]string{"redirect": "/"})
	default:
		h.logger.Warn("notification stream ended", zap.String("request_id", requestID), zap.Error(err))
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
