package handler

import (
	"net/http"

	"github.com/BloggingApp/journal-service/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) commentsCreate(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	var input dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err))
		return
	}

	createdComment, err := h.services.Comment.Create(c.Request.Context(), user, input)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusCreated, createdComment)
}

func (h *Handler) commentsGetThread(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err := parseIDParam(c, "postID")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	thread, err := h.services.Comment.GetThread(c.Request.Context(), postID, viewerID(user))
	if err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, thread)
}

func (h *Handler) commentsEdit(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err0 := parseIDParam(c, "postID")
	commentID, err1 := parseIDParam(c, "commentID")
	if err0 != nil || err1 != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return
	}

	var input dto.EditCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err))
		return
	}

	updatedComment, err := h.services.Comment.Edit(c.Request.Context(), user, postID, commentID, input)
	if err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, updatedComment)
}

func (h *Handler) commentsDelete(c *gin.Context) {
	user := h.getCachedUserFromRequest(c)

	postID, err0 := parseIDParam(c, "postID")
	commentID, err1 := parseIDParam(c, "commentID")
	if err0 != nil || err1 != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return
	}

	if err := h.services.Comment.Delete(c.Request.Context(), user, postID, commentID); err != nil {
		c.JSON(errorStatus(err), dto.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}
