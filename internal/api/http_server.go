package api

import (
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/config"
	"stockroom/internal/model"
	"stockroom/internal/service"
	"stockroom/internal/storage"

	"github.com/gin-gonic/gin"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg         config.Config
	repo        model.Repository
	storage     storage.Storage
	authManager *auth.Manager

	// 服务层
	accountService   *service.AccountService
	inventoryService *service.InventoryService

	// 认证端点限流
	ipLimiter    *keyedLimiter
	emailLimiter *keyedLimiter
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	handler := &HTTPHandler{
		cfg:              cfg,
		repo:             repo,
		storage:          store,
		authManager:      authManager,
		accountService:   service.NewAccountService(repo, authManager),
		inventoryService: service.NewInventoryService(repo, store),
		ipLimiter:        newKeyedLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst),
		emailLimiter:     newKeyedLimiter(cfg.EmailRatePerMinute, 1),
	}

	return handler, nil
}

// RegisterRoutes 挂载全部业务路由
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/signup", h.AuthRateLimit(false), h.Signup)
	authGroup.POST("/login", h.AuthRateLimit(true), h.Login)
	authGroup.POST("/logout", h.AuthMiddleware(), h.Logout)
	authGroup.GET("/me", h.AuthMiddleware(), h.Me)
	authGroup.PATCH("/me", h.AuthMiddleware(), h.UpdateMe)
	authGroup.DELETE("/me", h.AuthMiddleware(), h.DeleteMe)

	protected := apiGroup.Group("")
	protected.Use(h.AuthMiddleware())

	items := protected.Group("/items")
	items.POST("", h.CreateItem)
	items.GET("", h.ListItems)
	items.GET("/mine", h.ListMyItems)
	items.GET("/stats", h.ItemStats)
	items.GET("/:id", h.GetItem)
	items.PATCH("/:id", h.UpdateItem)
	items.DELETE("/:id", h.DeleteItem)
	items.POST("/export", h.RequireAdmin(), h.ExportItems)

	users := protected.Group("/users")
	users.Use(h.RequireAdmin())
	users.GET("", h.ListUsers)
	users.POST("", h.RequireSuperAdmin(), h.CreateUser)
	users.GET("/:id", h.GetUser)
	users.DELETE("/:id", h.DeleteUser)
	users.GET("/:id/items", h.ListUserItems)
}
