package handlers

import (
	"context"

	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services/dakapi"
)

// SessionAPI authenticates against the Dak backend
type SessionAPI interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
}

// DakAPI covers the dak workflow endpoints of the backend
type DakAPI interface {
	UploadDak(ctx context.Context, token string, req *models.UploadDakRequest, files []dakapi.UploadFile) (string, error)
	Heads(ctx context.Context, token string) ([]models.User, error)
	ForwardDak(ctx context.Context, token string, req *models.ForwardDakRequest) (string, error)
	ReturnDak(ctx context.Context, token string, req *models.ReturnDakRequest) (string, error)
	Reports(ctx context.Context, token, reportType string) ([]models.Dak, error)
	UserReports(ctx context.Context, token, reportType string) ([]models.Dak, error)
	Tracking(ctx context.Context, token, dakID string) ([]models.TrackingEntry, error)
	SendReminder(ctx context.Context, token string, req *models.ReminderRequest) (string, error)
	MarkAction(ctx context.Context, token string, req *models.MarkActionRequest) (string, error)
	RequestAdvice(ctx context.Context, token string, req *models.AdviceQueryRequest) (string, error)
	RespondAdvice(ctx context.Context, token string, req *models.AdviceResponseRequest) (string, error)
	Download(ctx context.Context, token, dakID string) (*dakapi.Document, error)
}

// AdminAPI covers user, role, permission and group administration
type AdminAPI interface {
	Users(ctx context.Context, token string) ([]models.User, error)
	CreateUser(ctx context.Context, token string, req *models.CreateUserRequest) (*models.User, error)
	Roles(ctx context.Context, token string) ([]models.Role, error)
	AssignRole(ctx context.Context, token string, req *models.AssignRoleRequest) (string, error)
	ResetPassword(ctx context.Context, token, userID string) (string, error)
	AllPermissions(ctx context.Context, token string) ([]models.Permission, error)
	UserPermissions(ctx context.Context, token, userID string) ([]string, error)
	SetUserPermissions(ctx context.Context, token, userID string, permissions []string) (string, error)
	Groups(ctx context.Context, token string) ([]models.Group, error)
	UpdateGroup(ctx context.Context, token string, req *models.UpdateGroupRequest) (string, error)
}

// ProfileAPI lets the caller edit their own account
type ProfileAPI interface {
	UpdateProfile(ctx context.Context, token string, req *models.UpdateProfileRequest) (string, error)
	ChangePassword(ctx context.Context, token string, req *models.ChangePasswordRequest) (string, error)
}

// WAPAPI covers work allocation plans
type WAPAPI interface {
	Users(ctx context.Context, token string) ([]models.User, error)
	WAPs(ctx context.Context, token string) ([]models.WAP, error)
	CreateWAP(ctx context.Context, token string, req *models.WAPRequest) (string, error)
	UpdateWAP(ctx context.Context, token, wapID string, req *models.WAPRequest) (string, error)
	MyWAPs(ctx context.Context, token string) ([]models.WAP, error)
	SubmitWAP(ctx context.Context, token string, req *models.WAPSubmitRequest) (string, error)
}

// NotificationAPI lists and acknowledges notifications
type NotificationAPI interface {
	Notifications(ctx context.Context, token string) ([]models.Notification, error)
	MarkNotificationsSeen(ctx context.Context, token string) error
}

// Compile-time checks that the backend client satisfies every handler dependency.
var (
	_ SessionAPI      = (*dakapi.Client)(nil)
	_ DakAPI          = (*dakapi.Client)(nil)
	_ AdminAPI        = (*dakapi.Client)(nil)
	_ ProfileAPI      = (*dakapi.Client)(nil)
	_ WAPAPI          = (*dakapi.Client)(nil)
	_ NotificationAPI = (*dakapi.Client)(nil)
)
