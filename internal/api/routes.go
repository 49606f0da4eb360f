// routes.go - Route registration and server assembly
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/exam-archive/backend/internal/config"
	"github.com/exam-archive/backend/internal/logging"
	"github.com/exam-archive/backend/internal/web"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Groups  GroupService
	Files   FileService
	Logger  *logging.Logger
	Config  *config.AppConfig
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Group  GroupHandler
	File   FileHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version),
		Group:  NewGroupHandler(deps.Groups),
		File:   NewFileHandler(deps.Files),
	}
}

// RegisterRoutes registers all routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/health", handlers.Health.HandleHealth)

	// Group routes
	e.POST("/create_folder", handlers.Group.HandleCreateFolder)
	e.GET("/get_folders", handlers.Group.HandleGetFolders)
	e.GET("/get_folder_info/:id", handlers.Group.HandleGetFolderInfo)
	e.POST("/update_folder", handlers.Group.HandleUpdateFolder)
	e.DELETE("/delete_folder/:id", handlers.Group.HandleDeleteFolder)
	e.GET("/get_files/:id", handlers.Group.HandleGetFiles)

	// File routes
	e.POST("/upload", handlers.File.HandleUpload)
	e.GET("/download/:id/:filename", handlers.File.HandleDownload)
	e.DELETE("/delete/:id/:filename", handlers.File.HandleDeleteFile)
}

// NewServer builds the Echo instance with middleware, API routes and the UI.
func NewServer(deps *Dependencies) *echo.Echo {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(log)

	SetupMiddleware(e, cfg, log)

	RegisterRoutes(e, NewHandlers(deps))
	web.RegisterRoutes(e)

	return e
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg *config.AppConfig, log *logging.Logger) {
	e.Use(RequestID())

	if cfg.Logging.EnableRequestLogging {
		e.Use(RequestLogger(log))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: true,
	}))

	// Compression middleware; stored files are sent as they are
	if cfg.Server.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Server.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Request().URL.Path, "/download/")
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
