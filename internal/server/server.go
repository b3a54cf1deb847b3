// Package server assembles the HTTP and WebSocket surface.
package server

import (
	"net/http"
	"time"

	"termchat/internal/auth"
	"termchat/internal/chat"
	"termchat/internal/exec"
	"termchat/internal/files"

	"github.com/gin-gonic/gin"
)

// Config holds HTTP server settings.
type Config struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// Deps are the collaborators the surface exposes.
type Deps struct {
	Auth   *auth.Service
	Store  *files.Store
	Runner *exec.Pool
	Hub    *chat.Hub
}

// New builds the HTTP server with all routes and middleware wired.
func New(cfg Config, deps Deps) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(traceContext())
	router.Use(requestLogger())

	h := &handlers{auth: deps.Auth, store: deps.Store, runner: deps.Runner}
	dispatcher := chat.NewDispatcher(deps.Hub, deps.Auth, deps.Store, deps.Runner)

	router.GET("/health", h.health)
	router.GET("/ws", wsHandler(deps.Hub, dispatcher))

	api := router.Group("/api/v1")
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)

	authed := api.Group("")
	authed.Use(requireAuth(deps.Auth))
	authed.POST("/upload", h.upload)
	authed.GET("/files", h.listFiles)
	authed.GET("/files/:name", h.download)
	authed.POST("/run", h.run)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
