package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/dak-console/app"
	"github.com/upb/dak-console/handlers"
	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/middleware"
	"github.com/upb/dak-console/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	sm := deps.SessionMiddleware
	can := sm.RequireCapability

	health := handlers.NewHealthHandler(deps.SQLDB(), deps.Clients, logger)
	sessions := handlers.NewSessionHandler(deps.Backend, deps.Resolver, logger)
	dashboard := handlers.NewDashboardHandler(deps.Resolver, logger)
	daks := handlers.NewDakHandler(deps.Backend, deps.Resolver, cfg.Backend.MaxUploadBytes, logger)
	admin := handlers.NewAdminHandler(deps.Backend, deps.Resolver, logger)
	profile := handlers.NewProfileHandler(deps.Backend, logger)
	waps := handlers.NewWAPHandler(deps.Backend, deps.Resolver, logger)
	notices := handlers.NewNotificationHandler(deps.Backend, deps.Notifier, logger)

	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.PropagateRequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		r.Use(sm.LoadSession)

		// Notification stream stays open past the request timeout
		r.With(sm.RequireSession).Get("/notifications/stream", notices.HandleStream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(cfg.Server.RequestTimeout))

			r.Route("/session", func(r chi.Router) {
				r.Get("/", sessions.HandleCurrent)
				r.Post("/login", sessions.HandleLogin)
				r.Post("/logout", sessions.HandleLogout)
			})

			r.Group(func(r chi.Router) {
				r.Use(sm.RequireSession)

				r.Get("/dashboard", dashboard.HandleDashboard)

				r.Get("/notifications", notices.HandleList)
				r.Put("/notifications/seen", notices.HandleMarkSeen)

				r.Put("/me", profile.HandleUpdateProfile)
				r.Put("/me/password", profile.HandleChangePassword)
			})

			// Dak workflow
			r.With(can(capability.Upload, capability.ViewHeads)).Get("/heads", daks.HandleHeads)
			r.With(can(capability.RequestAdvice)).Get("/advice", daks.HandleAdvice)
			r.Route("/daks", func(r chi.Router) {
				r.With(can(capability.Upload)).Post("/", daks.HandleUpload)
				r.With(can(capability.Report)).Get("/reports", daks.HandleReports)
				r.With(can(capability.Read)).Get("/mine", daks.HandleMine)

				r.Route("/{id}", func(r chi.Router) {
					r.With(can(capability.Forward)).Post("/forward", daks.HandleForward)
					r.With(can(capability.Forward)).Post("/return", daks.HandleReturn)
					r.With(can(capability.Reminder)).Post("/reminder", daks.HandleReminder)
					r.With(can(capability.Action)).Post("/action", daks.HandleMarkAction)
					r.With(can(capability.RequestAdvice)).Post("/advice", daks.HandleRequestAdvice)
					r.With(can(capability.Forward)).Post("/advice/response", daks.HandleRespondAdvice)
					r.With(can(capability.Read)).Get("/download", daks.HandleDownload)
					r.With(can(capability.Read, capability.Report)).Get("/tracking", daks.HandleTracking)
				})
			})

			// Administration
			r.Route("/users", func(r chi.Router) {
				r.With(can(capability.ManageUsers)).Get("/", admin.HandleListUsers)
				r.With(can(capability.ManageUsers)).Post("/", admin.HandleCreateUser)
				r.With(can(capability.ManageUsers, capability.ViewHeads)).Put("/{id}/role", admin.HandleAssignRole)
				r.With(can(capability.ResetPassword)).Post("/{id}/reset-password", admin.HandleResetPassword)
				r.With(can(capability.ManageUsers)).Get("/{id}/permissions", admin.HandleGetUserPermissions)
				r.With(can(capability.ManageUsers)).Put("/{id}/permissions", admin.HandleSetUserPermissions)
			})
			r.With(can(capability.ManageUsers, capability.ViewHeads)).Get("/roles", admin.HandleListRoles)
			r.With(can(capability.ManageUsers)).Get("/permissions", admin.HandleListPermissions)
			r.With(can(capability.ViewGroups)).Get("/groups", admin.HandleListGroups)
			r.With(can(capability.ManageGroup)).Put("/groups", admin.HandleUpdateGroup)

			// Work allocation plans
			r.Route("/waps", func(r chi.Router) {
				r.With(can(capability.ManageWAP)).Get("/", waps.HandleList)
				r.With(can(capability.ManageWAP)).Post("/", waps.HandleCreate)
				r.With(can(capability.ManageWAP)).Get("/assignable", waps.HandleAssignable)
				r.With(can(capability.ManageWAP)).Put("/{id}", waps.HandleUpdate)
				r.With(can(capability.WAP)).Get("/mine", waps.HandleMine)
				r.With(can(capability.WAP)).Put("/mine/{id}", waps.HandleSubmit)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
