package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"reelbook/config"
	"reelbook/handlers"
	"reelbook/middleware"
)

func SetupRouter(cfg *config.Config, h *handlers.Handler, tokens middleware.TokenParser, limiter middleware.Limiter) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.Sentry(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.App.Origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	if limiter != nil {
		router.Use(middleware.RateLimit(limiter))
	}

	Register(router, h, tokens)
	return router
}

// Register mounts the API routes on router.
func Register(router *gin.Engine, h *handlers.Handler, tokens middleware.TokenParser) {
	requireAuth := middleware.JWTAuth(tokens)

	router.GET("/health", handlers.Health)

	api := router.Group("/api")
	api.GET("/health", handlers.Health)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", h.Register)
	authRoutes.POST("/login", h.Login)
	authRoutes.GET("/me", requireAuth, h.Me)

	users := api.Group("/users")
	users.GET("/profile/:username", h.GetProfile)
	users.GET("/search", h.SearchUsers)
	users.PUT("/profile", requireAuth, h.UpdateProfile)
	users.PUT("/profile/picture", requireAuth, h.UpdateProfilePicture)
	users.PUT("/follow/:id", requireAuth, h.Follow)
	users.PUT("/unfollow/:id", requireAuth, h.Unfollow)

	posts := api.Group("/posts", requireAuth)
	posts.POST("", h.CreatePost)
	posts.GET("/feed", h.Feed)
	posts.GET("/user/:userId", h.UserPosts)
	posts.GET("/:id", h.GetPost)
	posts.PUT("/:id/like", h.LikePost)
	posts.POST("/:id/comment", h.CommentPost)
	posts.DELETE("/:id", h.DeletePost)

	reels := api.Group("/reels", requireAuth)
	reels.GET("", h.Reels)
	reels.POST("/:id/like", h.LikePost)
	reels.POST("/:id/comment", h.CommentPost)

	api.POST("/media/upload", requireAuth, h.UploadMedia)

	notifications := api.Group("/notifications")
	notifications.GET("/vapid-public-key", h.VapidPublicKey)
	notifications.POST("/subscribe", requireAuth, h.Subscribe)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "Endpoint not found",
				"path":    c.Request.URL.Path,
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})
}
