package dakapi

import (
	"context"
	"net/http"

	"github.com/upb/dak-console/models"
)

// Notifications lists the caller's notifications.
func (c *Client) Notifications(ctx context.Context, token string) ([]models.Notification, error) {
	var items []models.Notification
	if err := c.doJSON(ctx, http.MethodGet, "/notifications/my-notifications", token, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkNotificationsSeen marks every notification of the caller as seen.
func (c *Client) MarkNotificationsSeen(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPut, "/notifications/mark-seen", token, nil, nil)
}
