package categories

import (
	"errors"
	"strconv"

	"codeclover/internal/httpx"
	"codeclover/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Handler serves category endpoints. Listing is public; mutations are
// admin only (enforced at route wiring).
type Handler struct {
	db *gorm.DB
}

// NewHandler creates the categories handler.
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// List returns all categories.
func (h *Handler) List(c *gin.Context) {
	var categories []model.Category
	if err := h.db.Order("name").Find(&categories).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to query categories", err))
		return
	}
	httpx.OK(c, categories)
}

// CreateRequest represents the category creation request body
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Create adds a category, deriving its slug from the name.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("name is required"))
		return
	}

	category := model.Category{
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
	}
	if err := h.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.FailErr(c, httpx.ErrAlreadyExists("a category with this name already exists"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create category", err))
		return
	}

	httpx.Created(c, category)
}

// UpdateRequest represents the category update request body
type UpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Update renames a category and re-derives its slug.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid category id"))
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	var category model.Category
	if err := h.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("category not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	if req.Name != "" {
		category.Name = req.Name
		category.Slug = slug.Make(req.Name)
	}
	if req.Description != "" {
		category.Description = req.Description
	}

	if err := h.db.Save(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.FailErr(c, httpx.ErrAlreadyExists("a category with this name already exists"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to update category", err))
		return
	}

	httpx.OK(c, category)
}

// Delete removes a category. Posts keep existing; only the association
// rows go away.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid category id"))
		return
	}

	var category model.Category
	if err := h.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("category not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	if err := h.db.Model(&category).Association("Posts").Clear(); err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to clear associations", err))
		return
	}
	if err := h.db.Delete(&category).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete category", err))
		return
	}

	httpx.NoContent(c)
}
