package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vikasavnish/parentportal/internal/config"
	"github.com/vikasavnish/parentportal/internal/handlers"
	"github.com/vikasavnish/parentportal/internal/middleware"
	"github.com/vikasavnish/parentportal/internal/services"
	"github.com/vikasavnish/parentportal/internal/storage"
	"github.com/vikasavnish/parentportal/internal/store"
	"github.com/vikasavnish/parentportal/internal/websocket"
)

// SetupRouter configures all routes and returns the router
func SetupRouter(
	database *gorm.DB,
	wsHub *websocket.Hub,
	notifier services.Notifier,
	photos storage.PhotoStore,
	cfg *config.Config,
	logger *zap.Logger,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(logger.Named("http")))

	router.HandleFunc("/api/health", HealthHandler(database)).Methods("GET")
	router.HandleFunc("/api/routes", PrintRoutesHandler(router)).Methods("GET")
	router.HandleFunc("/ws", wsHub.HandleWebSocket)

	if local, ok := photos.(*storage.LocalStore); ok {
		router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.Dir()))),
		)
	}

	// Create services
	creds := services.NewCredentialService(cfg.JWT.SecretKey, cfg.Auth.BcryptCost)
	accountService := services.NewAccountService(creds, notifier, wsHub, services.AccountOptions{
		PublicBaseURL:      cfg.Server.PublicBaseURL,
		AccessTokenTTL:     cfg.JWT.AccessTokenTTL,
		ActivationTokenTTL: cfg.JWT.ActivationTokenTTL,
		RequireActivation:  cfg.Auth.RequireActivation,
	}, logger.Named("accounts"))
	profileService := services.NewProfileService(photos, logger.Named("profiles"))
	childService := services.NewChildService(notifier, wsHub, cfg.Notify.ChildCreatedDelay, logger.Named("children"))

	// Create handlers using services
	tx := store.NewTransactor(database)
	authHandler := handlers.NewAuthHandler(tx, accountService, logger)
	profileHandler := handlers.NewProfileHandler(tx, profileService, logger)
	childHandler := handlers.NewChildHandler(tx, childService, logger)

	// Public endpoints
	authHandler.RegisterRoutes(router)
	profileHandler.RegisterRoutes(router)
	childHandler.RegisterRoutes(router)

	// Bearer-protected endpoints
	authRouter := router.PathPrefix("").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(creds))
	authHandler.RegisterProtectedRoutes(authRouter)

	return router
}
