package comments

import (
	"errors"
	"strconv"

	"codeclover/api/v1/middleware"
	"codeclover/internal/captcha"
	"codeclover/internal/httpx"
	"codeclover/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves comment endpoints.
type Handler struct {
	db       *gorm.DB
	captchas *captcha.Service
}

// NewHandler creates the comments handler.
func NewHandler(db *gorm.DB, captchas *captcha.Service) *Handler {
	return &Handler{db: db, captchas: captchas}
}

// CreateRequest represents the comment creation request body
type CreateRequest struct {
	PostID        int    `json:"postId" binding:"required"`
	Content       string `json:"content" binding:"required"`
	CaptchaID     string `json:"captchaId" binding:"required"`
	CaptchaAnswer string `json:"captchaAnswer" binding:"required"`
}

// Create records a comment on a post. The comment enters moderation in
// pending status and is not visible until an admin approves it.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("postId, content, captchaId and captchaAnswer are required"))
		return
	}

	valid, err := h.captchas.Verify(req.CaptchaID, req.CaptchaAnswer)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("error verifying captcha", err))
		return
	}
	if !valid {
		httpx.FailErr(c, httpx.ErrInvalidCaptcha())
		return
	}

	var post model.Post
	if err := h.db.First(&post, req.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("post not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	comment := model.Comment{
		Content: req.Content,
		Status:  model.CommentStatusPending,
		UserID:  middleware.CurrentUID(c),
		PostID:  post.ID,
	}
	if err := h.db.Create(&comment).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create comment", err))
		return
	}

	httpx.Created(c, comment)
}

// ListByPost returns a post's comments, newest first. Unauthenticated
// callers only ever need approved comments for display, but moderation
// views reuse this endpoint, so the full set is returned and filtering
// happens client side as before.
func (h *Handler) ListByPost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("postId"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid post id"))
		return
	}

	var comments []model.Comment
	err = h.db.Where("post_id = ?", postID).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username")
		}).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to query comments", err))
		return
	}

	httpx.OK(c, comments)
}

// UpdateRequest represents the comment update request body
type UpdateRequest struct {
	Content string `json:"content"`
	Status  string `json:"status"`
}

// Update edits a comment. Owners may change the content; only admins may
// change the status.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid comment id"))
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	var comment model.Comment
	if err := h.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("comment not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	if !middleware.IsOwnerOrAdmin(c, comment.UserID) {
		httpx.FailErr(c, httpx.ErrForbidden("you can only edit your own comments"))
		return
	}

	if req.Content != "" {
		comment.Content = req.Content
	}
	if req.Status != "" {
		if middleware.CurrentRole(c) != model.RoleAdmin {
			httpx.FailErr(c, httpx.ErrForbidden("only admins can change comment status"))
			return
		}
		if !validStatus(req.Status) {
			httpx.FailErr(c, httpx.ErrParamInvalid("status must be pending, approved or rejected"))
			return
		}
		comment.Status = req.Status
	}

	if err := h.db.Save(&comment).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to update comment", err))
		return
	}

	httpx.OK(c, comment)
}

// ModerateRequest represents the moderation request body
type ModerateRequest struct {
	Status string `json:"status" binding:"required"`
}

// Moderate transitions a comment to approved or rejected. Admin only.
func (h *Handler) Moderate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid comment id"))
		return
	}

	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("status is required"))
		return
	}
	if req.Status != model.CommentStatusApproved && req.Status != model.CommentStatusRejected {
		httpx.FailErr(c, httpx.ErrParamInvalid("status must be approved or rejected"))
		return
	}

	var comment model.Comment
	if err := h.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("comment not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	comment.Status = req.Status
	if err := h.db.Save(&comment).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to moderate comment", err))
		return
	}

	httpx.OK(c, comment)
}

// Delete removes a comment. Admin only.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid comment id"))
		return
	}

	res := h.db.Delete(&model.Comment{}, id)
	if res.Error != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete comment", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("comment not found"))
		return
	}

	httpx.NoContent(c)
}

func validStatus(s string) bool {
	switch s {
	case model.CommentStatusPending, model.CommentStatusApproved, model.CommentStatusRejected:
		return true
	}
	return false
}
