package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/api"
	"github.com/vikasavnish/parentportal/internal/config"
	"github.com/vikasavnish/parentportal/internal/email"
	"github.com/vikasavnish/parentportal/internal/tasks"
	"github.com/vikasavnish/parentportal/internal/websocket"
)

// Prints the route table of the server without connecting to any backend.
func main() {
	logger := zap.NewNop()
	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: []byte("print-routes")},
	}

	notifier := tasks.NewNotificationDispatcher(
		tasks.NewMemoryQueue(),
		email.NewLogMailer(logger),
		tasks.DispatcherConfig{},
		logger,
	)

	router := api.SetupRouter(nil, websocket.NewHub(logger), notifier, nil, cfg, logger)
	api.PrintRoutes(os.Stdout, router)
}
