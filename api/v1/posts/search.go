package posts

import (
	"strings"
	"time"

	"codeclover/internal/httpx"
	"codeclover/internal/model"

	"github.com/gin-gonic/gin"
)

// SearchRequest represents search query parameters
type SearchRequest struct {
	Query    string `form:"query"`
	Category int    `form:"category"`
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
}

// parseDate accepts a plain date or a full timestamp.
func parseDate(value string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	return t, false, err
}

// Search returns posts matching a case-insensitive substring query on
// title or content, optionally filtered by category and creation date
// range. Results are newest first and unpaginated.
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid query parameters"))
		return
	}

	q := withRelations(h.db).Model(&model.Post{})

	if req.Query != "" {
		like := "%" + strings.ToLower(req.Query) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", like, like)
	}

	if req.Category > 0 {
		q = q.Joins("JOIN post_categories pc ON pc.post_id = posts.id").
			Where("pc.category_id = ?", req.Category)
	}

	if req.DateFrom != "" {
		from, _, err := parseDate(req.DateFrom)
		if err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid dateFrom"))
			return
		}
		q = q.Where("posts.created_at >= ?", from)
	}

	if req.DateTo != "" {
		to, dateOnly, err := parseDate(req.DateTo)
		if err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid dateTo"))
			return
		}
		if dateOnly {
			// Inclusive: a bare date covers the whole day
			to = to.Add(24 * time.Hour)
			q = q.Where("posts.created_at < ?", to)
		} else {
			q = q.Where("posts.created_at <= ?", to)
		}
	}

	var posts []model.Post
	if err := q.Order("posts.created_at DESC").Find(&posts).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to search posts", err))
		return
	}

	httpx.OK(c, posts)
}
