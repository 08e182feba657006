package v1

import (
	"time"

	"codeclover/api/v1/captchas"
	"codeclover/api/v1/categories"
	"codeclover/api/v1/comments"
	"codeclover/api/v1/contact"
	"codeclover/api/v1/middleware"
	"codeclover/api/v1/posts"
	"codeclover/api/v1/users"
	"codeclover/internal/captcha"
	"codeclover/internal/config"
	"codeclover/internal/httpx"
	"codeclover/internal/mailer"
	"codeclover/internal/model"
	"codeclover/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter sets up the API routes. rdb may be nil, in which case rate
// limiting is disabled.
func SetupRouter(r *gin.Engine, db *gorm.DB, cfg *config.Config, rdb *redis.Client, uploads *upload.Processor) {
	captchaService := captcha.NewService(db)
	mail := mailer.New(cfg)

	usersHandler := users.NewHandler(db, cfg, captchaService, mail)
	postsHandler := posts.NewHandler(db, uploads)
	categoriesHandler := categories.NewHandler(db)
	commentsHandler := comments.NewHandler(db, captchaService)
	captchasHandler := captchas.NewHandler(captchaService)
	contactHandler := contact.NewHandler(db, captchaService, mail)

	// Uploaded images are served from both paths; the editor links the
	// short form, older posts reference the API form.
	r.Static("/uploads", uploads.Dir())
	r.Static("/api/media", uploads.Dir())

	if cfg.App.StaticDir != "" {
		r.Static("/app", cfg.App.StaticDir)
	}

	limited := func(limit int) gin.HandlerFunc {
		return middleware.RateLimit(rdb, limit, time.Minute)
	}

	api := r.Group("/api")
	{
		api.GET("/ping", pingHandler)

		usersGroup := api.Group("/users")
		{
			usersGroup.POST("/register", limited(10), usersHandler.Register)
			usersGroup.POST("/login", limited(20), usersHandler.Login)
			usersGroup.POST("/refresh-token", usersHandler.RefreshToken)
			usersGroup.GET("/verify-token", middleware.AuthRequired(), usersHandler.VerifyToken)

			admin := usersGroup.Group("", middleware.AuthRequired(), middleware.RequireRole(model.RoleAdmin))
			{
				admin.GET("", usersHandler.List)
				admin.POST("", usersHandler.Create)
				admin.PUT("/:id", usersHandler.Update)
				admin.DELETE("/:id", usersHandler.Delete)
			}
		}

		postsGroup := api.Group("/posts")
		{
			postsGroup.GET("/search", postsHandler.Search)
			postsGroup.GET("", postsHandler.List)
			postsGroup.GET("/:id", postsHandler.Get)

			authed := postsGroup.Group("", middleware.AuthRequired())
			{
				authed.POST("", postsHandler.Create)
				authed.PUT("/:id", postsHandler.Update)
				authed.DELETE("/:id", postsHandler.Delete)
				authed.POST("/upload", postsHandler.Upload)
				authed.POST("/:id/images", postsHandler.AddImage)
				authed.DELETE("/:id/images", postsHandler.RemoveImage)
			}
		}

		categoriesGroup := api.Group("/categories")
		{
			categoriesGroup.GET("", categoriesHandler.List)

			admin := categoriesGroup.Group("", middleware.AuthRequired(), middleware.RequireRole(model.RoleAdmin))
			{
				admin.POST("", categoriesHandler.Create)
				admin.PUT("/:id", categoriesHandler.Update)
				admin.DELETE("/:id", categoriesHandler.Delete)
			}
		}

		commentsGroup := api.Group("/comments")
		{
			commentsGroup.GET("/:postId", commentsHandler.ListByPost)
			// Older clients fetched comments under /post/<id>.
			commentsGroup.GET("/post/:postId", commentsHandler.ListByPost)
			commentsGroup.POST("", middleware.AuthRequired(), commentsHandler.Create)
			commentsGroup.PUT("/:id", middleware.AuthRequired(), commentsHandler.Update)

			admin := commentsGroup.Group("", middleware.AuthRequired(), middleware.RequireRole(model.RoleAdmin))
			{
				admin.PATCH("/:id/moderate", commentsHandler.Moderate)
				admin.DELETE("/:id", commentsHandler.Delete)
			}
		}

		captchaGroup := api.Group("/captcha")
		{
			captchaGroup.GET("/generate", limited(30), captchasHandler.Generate)
			captchaGroup.POST("/verify", captchasHandler.Verify)
		}

		api.POST("/contact", limited(5), contactHandler.Submit)
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}
