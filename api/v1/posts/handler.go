package posts

import (
	"errors"
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

// Handler serves post CRUD, search and image endpoints.
type Handler struct {
	db      *gorm.DB
	uploads *upload.Processor
}

// NewHandler creates the posts handler.
func NewHandler(db *gorm.DB, uploads *upload.Processor) *Handler {
	return &Handler{db: db, uploads: uploads}
}

// ListRequest represents list pagination parameters
type ListRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// List returns posts newest first with offset pagination.
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid query parameters"))
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	var total int64
	if err := h.db.Model(&model.Post{}).Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count posts", err))
		return
	}

	var posts []model.Post
	offset := (req.Page - 1) * req.Limit
	if err := withRelations(h.db).
		Order("created_at DESC").
		Offset(offset).
		Limit(req.Limit).
		Find(&posts).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to query posts", err))
		return
	}

	httpx.OKItems(c, posts, total, req.Page, req.Limit)
}

// Get returns a single post with author, categories and media.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid post id"))
		return
	}

	var post model.Post
	if err := withRelations(h.db).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("post not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	httpx.OK(c, post)
}

// CreateRequest represents the post creation request body. Image
// references are passed explicitly alongside the content instead of being
// scraped out of the HTML.
type CreateRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	CategoryIDs []int    `json:"categoryIds"`
	ImageURLs   []string `json:"imageUrls"`
	Status      string   `json:"status"`
}

// Create persists a new post for the authenticated author.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}
	if req.Title == "" || req.Content == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("title and content are required"))
		return
	}
	if req.Status != "" && req.Status != model.PostStatusDraft && req.Status != model.PostStatusPublished {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid status"))
		return
	}

	ok, err := validCategoryIDs(h.db, req.CategoryIDs)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	if !ok {
		httpx.FailErr(c, httpx.ErrParamInvalid("unknown category id"))
		return
	}

	postSlug, err := uniqueSlug(h.db, req.Title, 0)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	uid := middleware.CurrentUID(c)
	post := model.Post{
		Title:    req.Title,
		Slug:     postSlug,
		Content:  contentPolicy.Sanitize(req.Content),
		AuthorID: uid,
		Status:   model.PostStatusDraft,
	}
	if req.Status == model.PostStatusPublished {
		now := time.Now()
		post.Status = model.PostStatusPublished
		post.PublishedAt = &now
	}

	// The unique index on title is the duplicate check; no prior lookup.
	if err := h.db.Create(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.FailErr(c, httpx.ErrAlreadyExists("a post with this title already exists"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create post", err))
		return
	}

	if err := h.associate(c, &post, req.CategoryIDs, req.ImageURLs, false); err != nil {
		return
	}

	var created model.Post
	if err := withRelations(h.db).First(&created, post.ID).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	httpx.Created(c, created)
}

// UpdateRequest represents the post update request body
type UpdateRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	CategoryIDs []int    `json:"categoryIds"`
	ImageURLs   []string `json:"imageUrls"`
	Status      string   `json:"status"`
	RemoveImage bool     `json:"removeImage"`
}

// Update mutates a post. Only the author or an admin may update; a title
// change re-derives the slug.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid post id"))
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}
	if req.Title == "" || req.Content == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("title and content are required"))
		return
	}
	if req.Status != "" && req.Status != model.PostStatusDraft && req.Status != model.PostStatusPublished {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid status"))
		return
	}

	var post model.Post
	if err := h.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("post not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	if !middleware.IsOwnerOrAdmin(c, post.AuthorID) {
		httpx.FailErr(c, httpx.ErrForbidden("not authorized to update this post"))
		return
	}

	ok, err := validCategoryIDs(h.db, req.CategoryIDs)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	if !ok {
		httpx.FailErr(c, httpx.ErrParamInvalid("unknown category id"))
		return
	}

	if req.Title != post.Title {
		newSlug, err := uniqueSlug(h.db, req.Title, post.ID)
		if err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("", err))
			return
		}
		post.Slug = newSlug
	}
	post.Title = req.Title
	post.Content = contentPolicy.Sanitize(req.Content)
	if req.Status != "" {
		if req.Status == model.PostStatusPublished && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}
		post.Status = req.Status
	}

	if err := h.db.Save(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.FailErr(c, httpx.ErrAlreadyExists("a post with this title already exists"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to update post", err))
		return
	}

	if err := h.associate(c, &post, req.CategoryIDs, req.ImageURLs, req.RemoveImage); err != nil {
		return
	}

	var updated model.Post
	if err := withRelations(h.db).First(&updated, post.ID).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}
	httpx.OK(c, updated)
}

// associate wires category and media relations after a create or update.
// Writes its own error response and returns non-nil when it did.
func (h *Handler) associate(c *gin.Context, post *model.Post, categoryIDs []int, imageURLs []string, clearMedia bool) error {
	if categoryIDs != nil {
		var cats []model.Category
		if len(categoryIDs) > 0 {
			if err := h.db.Find(&cats, categoryIDs).Error; err != nil {
				httpx.FailErr(c, httpx.ErrDatabaseError("", err))
				return err
			}
		}
		if err := h.db.Model(post).Association("Categories").Replace(cats); err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to set categories", err))
			return err
		}
	}

	if clearMedia {
		if err := h.db.Model(post).Association("Media").Clear(); err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to clear media", err))
			return err
		}
	}

	if err := linkImages(h.db, post, imageURLs, middleware.CurrentUID(c)); err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to link images", err))
		return err
	}
	return nil
}

// Delete removes a post. Only the author or an admin may delete.
// Association rows are removed with the post.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid post id"))
		return
	}

	var post model.Post
	if err := h.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("post not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	if !middleware.IsOwnerOrAdmin(c, post.AuthorID) {
		httpx.FailErr(c, httpx.ErrForbidden("not authorized to delete this post"))
		return
	}

	if err := h.db.Select(clause.Associations).Delete(&post).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete post", err))
		return
	}

	httpx.NoContent(c)
}
