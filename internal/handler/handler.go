package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/BloggingApp/journal-service/internal/dto"
	"github.com/BloggingApp/journal-service/internal/metrics"
	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

const cachedUserKey = "cached-user"

type Handler struct {
	services *service.Service
	metrics  *metrics.Metrics
}

func New(services *service.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		services: services,
		metrics:  m,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	if origin := viper.GetString("client.origin"); origin != "" {
		r.Use(cors.New(corsConfig(origin)))
	}
	r.Use(metricsMiddleware(h.metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewBasicResponse(true, "ok"))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.POST("/uploadImage", h.authMiddleware, h.postsUploadImage)
			posts.POST("", h.authMiddleware, h.postsCreate)
			posts.GET("", h.postsGetPublished)
			posts.GET("/my", h.authMiddleware, h.postsGetMy)
			posts.GET("/author/:userID", h.postsGetByAuthor)

			post := posts.Group("/:postID")
			{
				post.GET("", h.notRequiredAuthMiddleware, h.postsGetByID)
				post.PATCH("", h.authMiddleware, h.postsEdit)
				post.DELETE("", h.authMiddleware, h.postsDelete)
			}
		}

		comments := v1.Group("/comments")
		{
			comments.POST("", h.authMiddleware, h.commentsCreate)

			postComments := comments.Group("/:postID")
			{
				postComments.GET("", h.notRequiredAuthMiddleware, h.commentsGetThread)

				comment := postComments.Group("/:commentID")
				{
					comment.PATCH("", h.authMiddleware, h.commentsEdit)
					comment.DELETE("", h.authMiddleware, h.commentsDelete)
				}
			}
		}
	}

	return r
}

// getCachedUserFromRequest returns the user set by one of the auth
// middlewares, or nil for anonymous requests.
// corsConfig allows the web client at origin to call the API with credentials.
func corsConfig(origin string) cors.Config {
	return cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{"POST", "GET", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
}

func (h *Handler) getCachedUserFromRequest(c *gin.Context) *model.CachedUser {
	userReq, exists := c.Get(cachedUserKey)
	if !exists {
		return nil
	}

	user, ok := userReq.(*model.CachedUser)
	if !ok {
		return nil
	}

	return user
}

func viewerID(user *model.CachedUser) *uuid.UUID {
	if user == nil {
		return nil
	}
	return &user.ID
}

func parseIDParam(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
}
