package posts

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"codeclover/api/v1/middleware"
	"codeclover/internal/httpx"
	"codeclover/internal/model"
	"codeclover/internal/upload"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Upload accepts a multipart image, runs it through the optimization
// pipeline and records a media row. Requires the can_upload_images
// permission; admins bypass it. The response body is the rich-text
// editor's expected shape, not the standard envelope.
func (h *Handler) Upload(c *gin.Context) {
	uid := middleware.CurrentUID(c)

	if middleware.CurrentRole(c) != model.RoleAdmin {
		var user model.User
		if err := h.db.First(&user, uid).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("", err))
			return
		}
		if !user.CanUploadImages {
			httpx.FailErr(c, httpx.ErrForbidden("image upload permission required"))
			return
		}
	}

	// The editor sends the file as "upload", the plain form as "image".
	fh, err := c.FormFile("image")
	if err != nil {
		fh, err = c.FormFile("upload")
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"uploaded": 0,
			"error":    gin.H{"message": "no file uploaded"},
		})
		return
	}

	res, err := h.uploads.Process(fh)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrUnsupportedType):
			httpx.FailErr(c, httpx.ErrUnsupportedMediaType(""))
		case errors.Is(err, upload.ErrTooLarge):
			httpx.FailErr(c, httpx.ErrPayloadTooLarge(""))
		default:
			httpx.FailErr(c, httpx.ErrInternalError("error processing image", err))
		}
		return
	}

	media := model.Media{
		FileName:   res.FileName,
		FilePath:   res.FilePath,
		FileType:   fh.Header.Get("Content-Type"),
		UploadedBy: uid,
		UploadedAt: time.Now(),
	}
	if err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_path"}},
		DoNothing: true,
	}).Create(&media).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to record media", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploaded": 1,
		"fileName": res.FileName,
		"url":      res.URL,
		"width":    res.Width,
		"height":   res.Height,
	})
}

// ImageRequest represents the image association request body
type ImageRequest struct {
	ImageURL string `json:"imageUrl" binding:"required"`
}

func (h *Handler) findPostAndMedia(c *gin.Context) (*model.Post, *model.Media, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid post id"))
		return nil, nil, false
	}

	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("imageUrl is required"))
		return nil, nil, false
	}

	var post model.Post
	if err := h.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("post not found"))
			return nil, nil, false
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return nil, nil, false
	}

	var media model.Media
	err = h.db.Where("file_path = ?", normalizeImagePath(req.ImageURL)).First(&media).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown media is a no-op, matching the original behaviour
			return &post, nil, true
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return nil, nil, false
	}

	return &post, &media, true
}

// AddImage associates an already-uploaded image with a post.
func (h *Handler) AddImage(c *gin.Context) {
	post, media, ok := h.findPostAndMedia(c)
	if !ok {
		return
	}
	if media != nil {
		if err := h.db.Model(post).Association("Media").Append(media); err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to add image", err))
			return
		}
	}
	httpx.OKMsg(c, "image added successfully", nil)
}

// RemoveImage disassociates an image from a post. The media row and file
// stay in place; other posts may reference them.
func (h *Handler) RemoveImage(c *gin.Context) {
	post, media, ok := h.findPostAndMedia(c)
	if !ok {
		return
	}
	if media != nil {
		if err := h.db.Model(post).Association("Media").Delete(media); err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to remove image", err))
			return
		}
	}
	httpx.OKMsg(c, "image removed successfully", nil)
}
