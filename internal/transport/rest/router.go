package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/mkalenga/unigest/internal/auth"
	"github.com/mkalenga/unigest/internal/authz"
	"github.com/mkalenga/unigest/internal/directory"
	"github.com/mkalenga/unigest/internal/student"
	"github.com/mkalenga/unigest/internal/transport/middleware"
	"github.com/mkalenga/unigest/internal/transport/swagger"
)

// RegisterAllRoutes wires the HTTP surface. Every protected group is gated
// twice: the auth middleware establishes identity, the permission
// middleware asks the authorization engine the coarse unscoped question.
// Scoped decisions happen inside the services.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	authzService *authz.Service,
	grantHandler *authz.Handler,
	directoryHandler *directory.Handler,
	studentHandler *student.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
		})

		// Protected routes
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/users/me", authHandler.GetCurrentUser)

			// Organizational tree (read-only)
			pr.Group(func(dr chi.Router) {
				dr.Use(middleware.RequirePermission(authzService, logger, authz.PermViewDashboard))
				dr.Get("/faculties", directoryHandler.ListFaculties)
				dr.Get("/departments", directoryHandler.ListDepartments)
				dr.Get("/promotions", directoryHandler.ListPromotions)
			})

			// Students, filtered by the caller's access scope
			pr.Group(func(sr chi.Router) {
				sr.Use(middleware.RequirePermission(authzService, logger, authz.PermViewStudents))
				sr.Get("/students", studentHandler.ListStudents)
			})

			// Grant administration
			pr.Group(func(gr chi.Router) {
				gr.Use(middleware.RequirePermission(authzService, logger, authz.PermManageRoles))
				gr.Post("/grants", grantHandler.CreateGrant)
				gr.Delete("/grants", grantHandler.RevokeGrant)
				gr.Get("/users/{id}/access-scope", grantHandler.GetAccessScope)
			})
		})
	})
}
