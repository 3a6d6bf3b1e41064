package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/internal/session"
	"github.com/upb/dak-console/middleware"
	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services/dakapi"
	"github.com/upb/dak-console/services/sessioncache"
)

// MockBackend mocks every backend call the handlers make
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *MockBackend) UploadDak(ctx context.Context, token string, req *models.UploadDakRequest, files []dakapi.UploadFile) (string, error) {
	args := m.Called(ctx, token, req, files)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Heads(ctx context.Context, token string) ([]models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockBackend) ForwardDak(ctx context.Context, token string, req *models.ForwardDakRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) ReturnDak(ctx context.Context, token string, req *models.ReturnDakRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Reports(ctx context.Context, token, reportType string) ([]models.Dak, error) {
	args := m.Called(ctx, token, reportType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Dak), args.Error(1)
}

func (m *MockBackend) UserReports(ctx context.Context, token, reportType string) ([]models.Dak, error) {
	args := m.Called(ctx, token, reportType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Dak), args.Error(1)
}

func (m *MockBackend) Tracking(ctx context.Context, token, dakID string) ([]models.TrackingEntry, error) {
	args := m.Called(ctx, token, dakID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TrackingEntry), args.Error(1)
}

func (m *MockBackend) SendReminder(ctx context.Context, token string, req *models.ReminderRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) MarkAction(ctx context.Context, token string, req *models.MarkActionRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) RequestAdvice(ctx context.Context, token string, req *models.AdviceQueryRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) RespondAdvice(ctx context.Context, token string, req *models.AdviceResponseRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Download(ctx context.Context, token, dakID string) (*dakapi.Document, error) {
	args := m.Called(ctx, token, dakID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dakapi.Document), args.Error(1)
}

func (m *MockBackend) Users(ctx context.Context, token string) ([]models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockBackend) CreateUser(ctx context.Context, token string, req *models.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockBackend) Roles(ctx context.Context, token string) ([]models.Role, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Role), args.Error(1)
}

func (m *MockBackend) AssignRole(ctx context.Context, token string, req *models.AssignRoleRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) ResetPassword(ctx context.Context, token, userID string) (string, error) {
	args := m.Called(ctx, token, userID)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) AllPermissions(ctx context.Context, token string) ([]models.Permission, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Permission), args.Error(1)
}

func (m *MockBackend) UserPermissions(ctx context.Context, token, userID string) ([]string, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBackend) SetUserPermissions(ctx context.Context, token, userID string, permissions []string) (string, error) {
	args := m.Called(ctx, token, userID, permissions)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Groups(ctx context.Context, token string) ([]models.Group, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Group), args.Error(1)
}

func (m *MockBackend) UpdateGroup(ctx context.Context, token string, req *models.UpdateGroupRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) UpdateProfile(ctx context.Context, token string, req *models.UpdateProfileRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) ChangePassword(ctx context.Context, token string, req *models.ChangePasswordRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) WAPs(ctx context.Context, token string) ([]models.WAP, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WAP), args.Error(1)
}

func (m *MockBackend) CreateWAP(ctx context.Context, token string, req *models.WAPRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) UpdateWAP(ctx context.Context, token, wapID string, req *models.WAPRequest) (string, error) {
	args := m.Called(ctx, token, wapID, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) MyWAPs(ctx context.Context, token string) ([]models.WAP, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WAP), args.Error(1)
}

func (m *MockBackend) SubmitWAP(ctx context.Context, token string, req *models.WAPSubmitRequest) (string, error) {
	args := m.Called(ctx, token, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Notifications(ctx context.Context, token string) ([]models.Notification, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockBackend) MarkNotificationsSeen(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

var (
	_ SessionAPI      = (*MockBackend)(nil)
	_ DakAPI          = (*MockBackend)(nil)
	_ AdminAPI        = (*MockBackend)(nil)
	_ ProfileAPI      = (*MockBackend)(nil)
	_ WAPAPI          = (*MockBackend)(nil)
	_ NotificationAPI = (*MockBackend)(nil)
)

const testToken = "tok-123"

func sessionFor(role string, perms ...string) *models.Session {
	return &models.Session{
		Token:       testToken,
		Name:        "Asha",
		Email:       "asha@example.com",
		Role:        role,
		Permissions: models.NewPermissionSet(perms...),
	}
}

// newClient returns a client entry holding s, or no session when s is nil.
func newClient(t *testing.T, s *models.Session) *sessioncache.Entry {
	t.Helper()
	holder := session.NewHolder(session.NewMemoryStore().ForClient("client-1"), zap.NewNop())
	holder.Initialize(context.Background())
	if s != nil {
		require.NoError(t, holder.SetSession(context.Background(), s))
	}
	return &sessioncache.Entry{ClientID: "client-1", Holder: holder, InFlight: capability.NewInFlight()}
}

// newRequest builds a request as LoadSession would leave it.
func newRequest(method, target, body string, entry *sessioncache.Entry, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := middleware.WithRequestID(req.Context(), "req-1")
	if entry != nil {
		ctx = middleware.WithClientID(ctx, entry.ClientID)
		ctx = middleware.WithClient(ctx, entry)
		if s, _ := entry.Holder.Current(); s != nil {
			ctx = middleware.WithSession(ctx, s)
		}
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}
