package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"collab/internal/auth"
	"collab/internal/events"
	"collab/internal/features"
	"collab/internal/storage/sqlite"
)

// Options carries the collaborators the server needs besides storage.
type Options struct {
	StaticDir      string
	Tokens         *auth.Tokens
	Flags          *features.Registry
	Hub            *events.Hub
	Publisher      events.Publisher // defaults to Hub
	AllowedOrigins []string
	SecureCookie   bool
}

// Server provides HTTP handlers for the collaboration backend.
type Server struct {
	engine    *gin.Engine
	store     *sqlite.Store
	logger    *slog.Logger
	staticDir string
	tokens    *auth.Tokens
	flags     *features.Registry
	hub       *events.Hub
	publisher events.Publisher
	origins   []string
	secure    bool
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Flags == nil {
		opts.Flags = features.NewRegistry()
	}
	if opts.Publisher == nil && opts.Hub != nil {
		opts.Publisher = opts.Hub
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz"))

	srv := &Server{
		engine:    router,
		store:     store,
		logger:    logger,
		staticDir: opts.StaticDir,
		tokens:    opts.Tokens,
		flags:     opts.Flags,
		hub:       opts.Hub,
		publisher: opts.Publisher,
		origins:   opts.AllowedOrigins,
		secure:    opts.SecureCookie,
	}

	srv.registerRoutes()
	return srv
}

// Handler returns the engine wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(s.engine)
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.GET("/features", s.handleFeatures)
	}

	authGroup := s.engine.Group("/auth")
	{
		authGroup.POST("/sign_up", s.handleSignUp)
		authGroup.POST("/sign_in", s.handleSignIn)
		authGroup.POST("/sign_out", s.handleSignOut)
	}

	settings := s.engine.Group("/settings", s.requireUser)
	{
		settings.GET("", s.handleEditSettings)
		settings.PATCH("", s.handleUpdateSettings)
		settings.DELETE("", s.handleDestroyAccount)
	}

	orgs := s.engine.Group("/organizations", s.requireUser)
	{
		orgs.GET("", s.handleListOrganizations)
		orgs.POST("", s.handleCreateOrganization)

		org := orgs.Group("/:organizationSlug", s.loadOrganization)
		org.GET("/members", s.handleListMembers)
		org.POST("/members", s.handleAddMember)
		org.GET("/projects", s.handleListProjects)
		org.POST("/projects", s.handleCreateProject)

		project := org.Group("/projects/:projectSlug", s.loadProject)
		project.GET("/kanban_boards", s.handleListBoards)
		project.POST("/kanban_boards", s.handleCreateBoard)

		board := project.Group("/kanban_boards/:boardSlug", s.loadBoard)
		board.GET("", s.handleShowBoard)
		board.GET("/ws", s.handleBoardSocket)
		board.POST("/columns", s.handleCreateColumn)
		board.PUT("/columns/:columnId", s.handleUpdateColumn)
		board.PATCH("/columns/:columnId", s.handleUpdateColumn)
		board.DELETE("/columns/:columnId", s.handleDeleteColumn)
		board.POST("/columns/:columnId/tasks", s.handleCreateTask)
		board.PATCH("/columns/:columnId/tasks/:taskId", s.handleUpdateTask)
		board.PUT("/columns/:columnId/tasks/:taskId", s.handleUpdateTask)
		board.DELETE("/columns/:columnId/tasks/:taskId", s.handleDeleteTask)
	}

	s.mountStatic()
}

// handleHealth reports readiness, including database reachability.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.respondError(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleFeatures lists the evaluated feature flags.
func (s *Server) handleFeatures(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"features": s.flags.All()})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// statusFor maps storage errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sqlite.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, sqlite.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status matching err.
func (s *Server) fail(c *gin.Context, err error) {
	s.respondError(c, statusFor(err), err)
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	} else {
		s.logger.Debug("request rejected", slog.String("path", c.FullPath()), slog.Int("status", status), slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
