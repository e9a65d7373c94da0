package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/BloggingApp/journal-service/internal/dto"
	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func (h *Handler) authMiddleware(c *gin.Context) {
	accessToken := bearerToken(c)
	if accessToken == "" {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		c.Abort()
		return
	}

	user, err := h.getUserDataFromAccessTokenClaims(c.Request.Context(), accessToken)
	if err != nil {
		if errors.Is(err, errNotAuthorized) {
			c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(err))
		} else {
			c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		}
		c.Abort()
		return
	}

	c.Set(cachedUserKey, user)

	c.Next()
}

func (h *Handler) getUserDataFromAccessTokenClaims(ctx context.Context, accessToken string) (*model.CachedUser, error) {
	claims, err := utils.DecodeJWT(accessToken, []byte(os.Getenv("ACCESS_SECRET")))
	if err != nil {
		return nil, errNotAuthorized
	}

	idString, ok := claims["id"].(string)
	if !ok {
		return nil, errNotAuthorized
	}
	id, err := uuid.Parse(idString)
	if err != nil {
		return nil, errNotAuthorized
	}

	return h.services.UserCache.CreateOrGet(ctx, id, accessToken)
}
