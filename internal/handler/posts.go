package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/BloggingApp/journal-service/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) postsUploadImage(c *gin.Context) {
	file, fileHeader, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err))
		return
	}
	defer file.Close()

	url, err := h.services.Post.UploadImage(c.Request.Context(), file, fileHeader)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, url)
}

func (h *Handler) postsCreate(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	var input dto.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err))
		return
	}

	createdPost, err := h.services.Post.Create(c.Request.Context(), user, input)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusCreated, createdPost)
}

func (h *Handler) postsGetPublished(c *gin.Context) {
	amount := 0
	if amountString := strings.TrimSpace(c.Query("amount")); amountString != "" {
		parsed, err := strconv.Atoi(amountString)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errAmountMustBeInt.Error()))
			return
		}
		amount = parsed
	}

	posts, err := h.services.Post.FindPublished(c.Request.Context(), amount)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) postsGetMy(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	posts, err := h.services.Post.FindAuthorPosts(c.Request.Context(), user.ID, true)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) postsGetByAuthor(c *gin.Context) {
	userID, err := uuid.Parse(strings.TrimSpace(c.Param("userID")))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidUserID.Error()))
		return
	}

	posts, err := h.services.Post.FindAuthorPosts(c.Request.Context(), userID, false)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) postsGetByID(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	post, err := h.services.Post.FindByID(c.Request.Context(), postID, viewerID(user))
	if err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *Handler) postsEdit(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	var input dto.EditPostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err))
		return
	}

	updatedPost, err := h.services.Post.Edit(c.Request.Context(), user, postID, input)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, updatedPost)
}

func (h *Handler) postsDelete(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	if err := h.services.Post.Delete(c.Request.Context(), user, postID); err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}
