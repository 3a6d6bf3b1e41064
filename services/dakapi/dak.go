package dakapi

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services"
)

// UploadDak sends dak metadata and its PDFs as one multipart request.
func (c *Client) UploadDak(ctx context.Context, token string, req *models.UploadDakRequest, files []UploadFile) (string, error) {
	body, contentType, err := multipartBody([][2]string{
		{"receivedBy", req.ReceivedBy},
		{"source", req.Source},
		{"mail_id", req.MailID},
		{"subject", req.Subject},
	}, files)
	if err != nil {
		return "", services.WrapInternal("failed to encode upload", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/dak/upload", token, body, contentType)
	if err != nil {
		return "", err
	}
	var msg backendMessage
	if err := c.roundTrip(httpReq, &msg); err != nil {
		return "", err
	}
	return msg.text(), nil
}

// Heads lists users who can receive uploaded daks.
func (c *Client) Heads(ctx context.Context, token string) ([]models.User, error) {
	var heads []models.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/heads", token, nil, &heads); err != nil {
		return nil, err
	}
	return heads, nil
}

// ForwardDak forwards a dak to another user with optional advice.
func (c *Client) ForwardDak(ctx context.Context, token string, req *models.ForwardDakRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/dak/forward", token, req)
}

// ReturnDak sends a dak back to where it came from.
func (c *Client) ReturnDak(ctx context.Context, token string, req *models.ReturnDakRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/dak/return", token, req)
}

// Reports lists daks for the report view, filtered by type when given.
func (c *Client) Reports(ctx context.Context, token, reportType string) ([]models.Dak, error) {
	path := "/dak/report"
	if reportType != "" {
		path += "?type=" + url.QueryEscape(reportType)
	}
	var daks []models.Dak
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &daks); err != nil {
		return nil, err
	}
	return daks, nil
}

// UserReports lists daks addressed to the caller.
func (c *Client) UserReports(ctx context.Context, token, reportType string) ([]models.Dak, error) {
	path := "/dak/user-reports"
	if reportType != "" {
		path += "?type=" + url.QueryEscape(reportType)
	}
	var daks []models.Dak
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &daks); err != nil {
		return nil, err
	}
	return daks, nil
}

// Tracking returns a dak's tracking log.
func (c *Client) Tracking(ctx context.Context, token, dakID string) ([]models.TrackingEntry, error) {
	var entries []models.TrackingEntry
	if err := c.doJSON(ctx, http.MethodGet, "/dak/"+escape(dakID)+"/tracking", token, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SendReminder sends a reminder about a dak.
func (c *Client) SendReminder(ctx context.Context, token string, req *models.ReminderRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/dak/reminder", token, req)
}

// MarkAction records the action taken on a dak.
func (c *Client) MarkAction(ctx context.Context, token string, req *models.MarkActionRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/dak/mark-action", token, req)
}

// RequestAdvice asks a head for advice on a dak.
func (c *Client) RequestAdvice(ctx context.Context, token string, req *models.AdviceQueryRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/dak/request-advice", token, req)
}

// RespondAdvice answers an advice request.
func (c *Client) RespondAdvice(ctx context.Context, token string, req *models.AdviceResponseRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/dak/response-advice", token, req)
}

// Document is a downloaded dak PDF. The caller must close Body.
type Document struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Filename      string
}

// Download streams a dak's document.
func (c *Client) Download(ctx context.Context, token, dakID string) (*Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/dak/download/"+escape(dakID), token, nil, "")
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/pdf")
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	return &Document{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		Filename:      dakID + ".pdf",
	}, nil
}
