package dakapi

import (
	"context"
	"net/http"

	"github.com/upb/dak-console/models"
)

// Users lists every account.
func (c *Client) Users(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	if err := c.doJSON(ctx, http.MethodGet, "/users", token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates an account and returns it.
func (c *Client) CreateUser(ctx context.Context, token string, req *models.CreateUserRequest) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/users/create", token, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Roles lists the backend role records.
func (c *Client) Roles(ctx context.Context, token string) ([]models.Role, error) {
	var roles []models.Role
	if err := c.doJSON(ctx, http.MethodGet, "/users/role", token, nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// AssignRole changes a user's role.
func (c *Client) AssignRole(ctx context.Context, token string, req *models.AssignRoleRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPost, "/assign-role", token, req)
}

// ResetPassword resets a user's password to the backend default.
func (c *Client) ResetPassword(ctx context.Context, token, userID string) (string, error) {
	return c.doMessage(ctx, http.MethodPut, "/users/reset-password", token, map[string]string{"userId": userID})
}

// AllPermissions lists every grantable permission.
func (c *Client) AllPermissions(ctx context.Context, token string) ([]models.Permission, error) {
	var perms []models.Permission
	if err := c.doJSON(ctx, http.MethodGet, "/users/permissions", token, nil, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}

// UserPermissions returns the permission tags granted to one user.
func (c *Client) UserPermissions(ctx context.Context, token, userID string) ([]string, error) {
	var resp struct {
		Permission []string `json:"permission"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+escape(userID)+"/permissions", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Permission, nil
}

// SetUserPermissions replaces a user's permission list.
func (c *Client) SetUserPermissions(ctx context.Context, token, userID string, permissions []string) (string, error) {
	if permissions == nil {
		permissions = []string{}
	}
	body := models.UserPermissionsRequest{Permissions: permissions}
	return c.doMessage(ctx, http.MethodPut, "/users/"+escape(userID)+"/permissions", token, body)
}

// Groups lists organisational groups.
func (c *Client) Groups(ctx context.Context, token string) ([]models.Group, error) {
	var groups []models.Group
	if err := c.doJSON(ctx, http.MethodGet, "/users/group", token, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// UpdateGroup edits a head's group.
func (c *Client) UpdateGroup(ctx context.Context, token string, req *models.UpdateGroupRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPut, "/users/group", token, req)
}

// UpdateProfile edits the caller's own name and email.
func (c *Client) UpdateProfile(ctx context.Context, token string, req *models.UpdateProfileRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPut, "/users/me", token, req)
}

// ChangePassword changes the caller's password.
func (c *Client) ChangePassword(ctx context.Context, token string, req *models.ChangePasswordRequest) (string, error) {
	return c.doMessage(ctx, http.MethodPut, "/users/change-password", token, req)
}
