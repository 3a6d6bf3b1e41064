package dakapi

import (
	"context"
	"net/http"

	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services"
)

// Login exchanges credentials for a token and the caller's role and permissions.
// Any backend rejection is reported as invalid credentials.
func (c *Client) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		if services.IsExternalError(err) || services.IsInternalError(err) {
			return nil, err
		}
		return nil, services.NewDomainError(services.ErrorTypeUnauthorized, services.ErrInvalidCredentials.Message, err)
	}
	if resp.Token == "" {
		return nil, services.NewDomainError(services.ErrorTypeUnauthorized, services.ErrInvalidCredentials.Message, nil)
	}
	return &resp, nil
}
