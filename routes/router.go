package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/forumhub/forumhub/config"
	"github.com/forumhub/forumhub/controllers"
	"github.com/forumhub/forumhub/middleware"
	"github.com/forumhub/forumhub/repository"
	"github.com/forumhub/forumhub/utils"
)

// SetupRouter wires routes, middlewares, repositories, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.Server.Mode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(ginzap.Ginzap(utils.Logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(utils.Logger, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	postRepo := repository.NewPostRepository(db, utils.Logger)
	commentRepo := repository.NewCommentRepository(db, utils.Logger)
	postController := controllers.NewPostController(postRepo, commentRepo, utils.Logger)

	api := r.Group("/api/v1")
	api.Use(middleware.Identity())

	api.GET("/posts", postController.Index)
	api.GET("/posts/:slug", postController.Show)
	api.GET("/posts/:slug/comments", postController.GetComments)

	mutating := api.Group("")
	mutating.Use(middleware.RateLimit())
	mutating.POST("/posts", postController.Store)
	mutating.PATCH("/posts/:slug", postController.Update)
	mutating.PUT("/posts/:slug", postController.Update)
	mutating.DELETE("/posts/:slug", postController.Destroy)
	mutating.POST("/posts/:slug/comments", postController.StoreComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.ErrorMessage(ctx, http.StatusNotFound, utils.MsgNotFound)
	})

	return r
}
