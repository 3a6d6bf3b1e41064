package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/middleware"
	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services"
	"github.com/upb/dak-console/services/dakapi"
	"github.com/upb/dak-console/services/reports"
	"github.com/upb/dak-console/utils"
)

// DakHandler handles the dak workflow: upload, forward, return, reporting and user actions
type DakHandler struct {
	api            DakAPI
	resolver       *capability.Resolver
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewDakHandler creates a new DakHandler
func NewDakHandler(api DakAPI, resolver *capability.Resolver, maxUploadBytes int64, logger *zap.Logger) *DakHandler {
	return &DakHandler{api: api, resolver: resolver, maxUploadBytes: maxUploadBytes, logger: logger}
}

// HandleUpload handles POST /api/daks (multipart: receivedBy, source, mail_id, subject, files)
func (h *DakHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = utils.WriteError(w, http.StatusRequestEntityTooLarge, "Upload too large", nil)
			return
		}
		_ = utils.WriteBadRequest(w, "Invalid multipart form", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := models.UploadDakRequest{
		MailID:     strings.TrimSpace(r.FormValue("mail_id")),
		Subject:    strings.TrimSpace(r.FormValue("subject")),
		ReceivedBy: r.FormValue("receivedBy"),
		Source:     strings.ToLower(r.FormValue("source")),
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	files, closeFiles, err := openPDFs(r.MultipartForm.File["files"])
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	defer closeFiles()

	var msg string
	err = exclusive(r, entityUpload+req.MailID, func() error {
		var err error
		msg, err = h.api.UploadDak(r.Context(), s.Token, &req, files)
		return err
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Info("dak uploaded",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("mail_id", req.MailID),
		zap.Int("files", len(files)))
	writeMessage(w, h.logger, msg, nil)
}

// openPDFs opens every uploaded part and rejects anything that is not a PDF.
func openPDFs(headers []*multipart.FileHeader) ([]dakapi.UploadFile, func(), error) {
	if len(headers) == 0 {
		return nil, func() {}, services.ErrMissingFiles
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	files := make([]dakapi.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, services.WrapInternal("failed to read upload", err)
		}
		opened = append(opened, f)

		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		head = head[:n]
		if http.DetectContentType(head) != "application/pdf" || !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			closeAll()
			return nil, func() {}, services.NewDomainError(services.ErrorTypeValidation, services.ErrNotPDF.Message, nil).
				WithDetail("file", fh.Filename)
		}
		files = append(files, dakapi.UploadFile{
			Name:    filepath.Base(fh.Filename),
			Content: io.MultiReader(bytes.NewReader(head), f),
		})
	}
	return files, closeAll, nil
}

// HandleHeads handles GET /api/heads
func (h *DakHandler) HandleHeads(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	heads, err := h.api.Heads(r.Context(), s.Token)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, reports.SortHeadsByGroup(heads))
}

type forwardBody struct {
	UserID string `json:"userId"`
	Advice string `json:"advice"`
}

// HandleForward handles POST /api/daks/{id}/forward
func (h *DakHandler) HandleForward(w http.ResponseWriter, r *http.Request) {
	var body forwardBody
	h.mutate(w, r, &body, func(s *models.Session, dakID string) (string, error) {
		req := models.ForwardDakRequest{DakID: dakID, UserID: body.UserID, Advice: body.Advice}
		if err := utils.ValidateStruct(&req); err != nil {
			return "", err
		}
		return h.api.ForwardDak(r.Context(), s.Token, &req)
	})
}

type returnBody struct {
	Remark string `json:"remark"`
}

// HandleReturn handles POST /api/daks/{id}/return
func (h *DakHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	var body returnBody
	h.mutate(w, r, &body, func(s *models.Session, dakID string) (string, error) {
		return h.api.ReturnDak(r.Context(), s.Token, &models.ReturnDakRequest{DakID: dakID, Remark: body.Remark})
	})
}

type reminderBody struct {
	Message string `json:"message"`
}

// HandleReminder handles POST /api/daks/{id}/reminder
func (h *DakHandler) HandleReminder(w http.ResponseWriter, r *http.Request) {
	var body reminderBody
	h.mutate(w, r, &body, func(s *models.Session, dakID string) (string, error) {
		req := models.ReminderRequest{DakID: dakID, Message: body.Message}
		if err := utils.ValidateStruct(&req); err != nil {
			return "", err
		}
		return h.api.SendReminder(r.Context(), s.Token, &req)
	})
}

type actionBody struct {
	Action string `json:"action"`
}

// HandleMarkAction handles POST /api/daks/{id}/action
func (h *DakHandler) HandleMarkAction(w http.ResponseWriter, r *http.Request) {
	var body actionBody
	h.mutate(w, r, &body, func(s *models.Session, dakID string) (string, error) {
		req := models.MarkActionRequest{DakID: dakID, Action: body.Action}
		if err := utils.ValidateStruct(&req); err != nil {
			return "", err
		}
		return h.api.MarkAction(r.Context(), s.Token, &req)
	})
}

type adviceBody struct {
	Query string `json:"query"`
}

// HandleRequestAdvice handles POST /api/daks/{id}/advice
func (h *DakHandler) HandleRequestAdvice(w http.ResponseWriter, r *http.Request) {
	var body adviceBody
	h.mutate(w, r, &body, func(s *models.Session, dakID string) (string, error) {
		req := models.AdviceQueryRequest{DakID: dakID, Query: body.Query}
		if err := utils.ValidateStruct(&req); err != nil {
			return "", err
		}
		return h.api.RequestAdvice(r.Context(), s.Token, &req)
	})
}

type adviceResponseBody struct {
	HeadResponse string `json:"headResponse"`
}

// HandleRespondAdvice handles POST /api/daks/{id}/advice/response
func (h *DakHandler) HandleRespondAdvice(w http.ResponseWriter, r *http.Request) {
	var body adviceResponseBody
	h.mutate(w, r, &body, func(s *models.Session, dakID string) (string, error) {
		req := models.AdviceResponseRequest{DakID: dakID, HeadResponse: body.HeadResponse}
		if err := utils.ValidateStruct(&req); err != nil {
			return "", err
		}
		return h.api.RespondAdvice(r.Context(), s.Token, &req)
	})
}

// mutate decodes body, then runs call exclusively for the dak in the URL.
func (h *DakHandler) mutate(w http.ResponseWriter, r *http.Request, body interface{}, call func(*models.Session, string) (string, error)) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	dakID := chi.URLParam(r, "id")
	if err := utils.ValidateRequired(dakID, "dak id"); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.DecodeJSON(w, r, body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	var msg string
	err := exclusive(r, reports.DakKey(dakID), func() error {
		var err error
		msg, err = call(s, dakID)
		return err
	})
	if utils.IsValidationError(err) {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Info("dak updated",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("dak_id", dakID),
		zap.String("path", r.URL.Path))
	writeMessage(w, h.logger, msg, nil)
}

// HandleReports handles GET /api/daks/reports?type=
// Each row carries the gate state of its forward and return controls.
func (h *DakHandler) HandleReports(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	daks, err := h.api.Reports(r.Context(), s.Token, r.URL.Query().Get("type"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	var inFlight *capability.InFlight
	if entry := middleware.GetClientFromContext(r.Context()); entry != nil {
		inFlight = entry.InFlight
	}
	writeOK(w, h.logger, reports.BuildReportRows(h.resolver, s, daks, inFlight))
}

// HandleMine handles GET /api/daks/mine?type=
func (h *DakHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	daks, err := h.api.UserReports(r.Context(), s.Token, r.URL.Query().Get("type"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, daks)
}

// HandleAdvice handles GET /api/advice
func (h *DakHandler) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	daks, err := h.api.UserReports(r.Context(), s.Token, "")
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, reports.FlattenAdvice(daks))
}

// HandleTracking handles GET /api/daks/{id}/tracking
func (h *DakHandler) HandleTracking(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	entries, err := h.api.Tracking(r.Context(), s.Token, chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, h.logger, entries)
}

// HandleDownload handles GET /api/daks/{id}/download
func (h *DakHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(w, r)
	if !ok {
		return
	}
	doc, err := h.api.Download(r.Context(), s.Token, chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	defer doc.Body.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	if doc.ContentLength > 0 {
		w.Header().Set("Content-Length", fmt.Sprint(doc.ContentLength))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, doc.Body); err != nil {
		h.logger.Warn("download interrupted",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
	}
}
