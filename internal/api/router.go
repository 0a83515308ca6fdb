package api

import (
	"net/http"
	"time"

	"olimpiada_backend/internal/api/handler"
	"olimpiada_backend/internal/app/service"
	"olimpiada_backend/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	enrollmentService *service.EnrollmentService,
	competitionService *service.CompetitionService,
	registryService *service.RegistryService,
	cashierService *service.CashierService,
	consultaService *service.ConsultaService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies a bearer token when present, puts claims in context.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// Public registration flow plus catalog lookups
		registroHandler := handler.NewRegistroHandler(enrollmentService, consultaService)
		v1.Route("/registro", registroHandler.RegisterRoutes)

		// Admin: competitions, tutors, enrollment review
		adminHandler := handler.NewAdminHandler(competitionService, enrollmentService, registryService)
		v1.Route("/admin", adminHandler.RegisterRoutes)

		// Cashier payment desk
		cajeroHandler := handler.NewCajeroHandler(cashierService)
		v1.Route("/cajero", cajeroHandler.RegisterRoutes)

		// Tutor and competitor dashboards, public schedule
		consultaHandler := handler.NewConsultaHandler(consultaService, competitionService)
		v1.Route("/consulta", consultaHandler.RegisterRoutes)
	})

	return r
}
