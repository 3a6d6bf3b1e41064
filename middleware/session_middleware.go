package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/internal/session"
	"github.com/upb/dak-console/services/sessioncache"
	"github.com/upb/dak-console/utils"
)

// CookieConfig controls the browser client cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// SessionMiddleware binds each request to its client's session holder and
// enforces capability requirements.
type SessionMiddleware struct {
	cache    *sessioncache.Cache
	resolver *capability.Resolver
	cookie   CookieConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(cache *sessioncache.Cache, resolver *capability.Resolver, cookie CookieConfig, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		cache:    cache,
		resolver: resolver,
		cookie:   cookie,
		logger:   logger,
		now:      time.Now,
	}
}

// LoadSession resolves the client cookie, issuing one when absent or malformed,
// and places the client entry and a session snapshot on the context. A held
// session whose token has expired is logged out before the snapshot is taken.
func (m *SessionMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		clientID := m.clientID(w, r)
		entry := m.cache.Get(ctx, clientID)

		s, _ := entry.Holder.Current()
		if s != nil && session.TokenExpired(s.Token, m.now()) {
			m.logger.Info("session token expired, logging out",
				zap.String("request_id", requestID),
				zap.String("client_id", clientID))
			if err := entry.Holder.Logout(ctx); err != nil {
				m.logger.Warn("logout after token expiry failed",
					zap.String("request_id", requestID),
					zap.Error(err))
			}
			s = nil
		}

		ctx = WithClientID(ctx, clientID)
		ctx = WithClient(ctx, entry)
		ctx = WithSession(ctx, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(m.cookie.Name); err == nil {
		if utils.ValidateClientID(c.Value) == nil {
			return c.Value
		}
	}

	clientID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    clientID,
		Path:     "/",
		MaxAge:   int(m.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return clientID
}

// RequireSession rejects requests without a signed-in session.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSessionFromContext(r.Context()) == nil {
			m.logger.Debug("session required",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCapability rejects requests whose session holds none of capabilities.
// Requests without a session get 401, those lacking the capability get 403.
func (m *SessionMiddleware) RequireCapability(capabilities ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			s := GetSessionFromContext(ctx)
			if s == nil {
				_ = utils.WriteUnauthorized(w, "")
				return
			}

			if !m.resolver.CanAny(s, capabilities...) {
				m.logger.Warn("insufficient permissions",
					zap.String("request_id", requestID),
					zap.Strings("required", capabilities),
					zap.String("role", s.Role))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}

			m.logger.Debug("capability check passed",
				zap.String("request_id", requestID),
				zap.Strings("required", capabilities))
			next.ServeHTTP(w, r)
		})
	}
}
