package dakapi

import (
	"context"
	"net/http"

	"github.com/upb/dak-console/models"
)

// WAPs lists every work allocation plan entry.
func (c *Client) WAPs(ctx context.Context, token string) ([]models.WAP, error) {
	var waps []models.WAP
	if err := c.doJSON(ctx, http.MethodGet, "/waps", token, nil, &waps); err != nil {
		return nil, err
	}
	return waps, nil
}

// CreateWAP assigns a task to a user.
func (c *Client) CreateWAP(ctx context.Context, token string, req *models.WAPRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/waps/create", token, req)
}

// UpdateWAP edits an existing assignment.
func (c *Client) UpdateWAP(ctx context.Context, token, wapID string, req *models.WAPRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPut, "/waps/"+escape(wapID), token, req)
}

// MyWAPs lists tasks assigned to the caller.
func (c *Client) MyWAPs(ctx context.Context, token string) ([]models.WAP, error) {
	var waps []models.WAP
	if err := c.doJSON(ctx, http.MethodGet, "/waps/user", token, nil, &waps); err != nil {
		return nil, err
	}
	return waps, nil
}

// SubmitWAP records the caller's submit date on one of their tasks.
func (c *Client) SubmitWAP(ctx context.Context, token string, req *models.WAPSubmitRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPut, "/waps/editWapUser", token, req)
}
