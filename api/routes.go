package api

import (
	"github.com/gorilla/mux"

	"github.com/jobdeck/jobdeck/internal/application"
	"github.com/jobdeck/jobdeck/internal/dashboard"
	"github.com/jobdeck/jobdeck/internal/profile"
	"github.com/jobdeck/jobdeck/internal/session"
	"github.com/jobdeck/jobdeck/pkg/jobsfeed"
)

// Stores bundles the state layer the handlers expose.
type Stores struct {
	Sessions     *session.Store
	Applications *application.Store
	Profiles     *profile.Store
	Dashboard    *dashboard.Service
	Feed         *jobsfeed.Client
}

func SetupRoutes(secret, version, buildTime string, stores Stores) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(stores.Sessions)
	appsHandler := NewApplicationsHandler(stores.Applications, stores.Dashboard)
	profileHandler := NewProfileHandler(stores.Profiles)
	jobsHandler := NewJobsHandler(stores.Feed)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")
	r.HandleFunc("/v1/jobs", jobsHandler.List).Methods("GET")
	r.HandleFunc("/v1/jobs/{id}", jobsHandler.Get).Methods("GET")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(secret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")
	authV1.HandleFunc("/me", authHandler.Me).Methods("GET")

	// Application endpoints
	apiV1.HandleFunc("/applications", appsHandler.List).Methods("GET")
	apiV1.HandleFunc("/applications", appsHandler.Create).Methods("POST")
	apiV1.HandleFunc("/applications", appsHandler.Import).Methods("PUT")
	apiV1.HandleFunc("/applications/{id}", appsHandler.Delete).Methods("DELETE")
	apiV1.HandleFunc("/dashboard/stats", appsHandler.Stats).Methods("GET")

	// Profile endpoints
	apiV1.HandleFunc("/profile", profileHandler.Get).Methods("GET")
	apiV1.HandleFunc("/profile", profileHandler.Replace).Methods("PUT")
	apiV1.HandleFunc("/profile/sections/{section}", profileHandler.PatchSection).Methods("PUT")

	return r
}
