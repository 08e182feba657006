package posts

import (
	"fmt"
	"path"
	"time"

	"codeclover/internal/model"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// contentPolicy sanitizes stored post HTML. Standard user-generated
// content rules plus inline images with src/alt.
var contentPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("src", "alt").OnElements("img")
	return p
}()

// uniqueSlug derives a URL slug from the title, appending a numeric
// suffix until it is unique. excludeID skips the post being updated so a
// post keeps its slug when the title is unchanged.
func uniqueSlug(db *gorm.DB, title string, excludeID int) (string, error) {
	base := slug.Make(title)
	candidate := base

	for counter := 1; ; counter++ {
		q := db.Model(&model.Post{}).Where("slug = ?", candidate)
		if excludeID > 0 {
			q = q.Where("id <> ?", excludeID)
		}
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}

// normalizeImagePath reduces any image URL the client sent to the
// relative upload path recorded in the media table.
func normalizeImagePath(raw string) string {
	base := path.Base(raw)
	if base == "." || base == "/" || base == "" {
		return ""
	}
	return path.Join("uploads", base)
}

// validCategoryIDs reports whether every id references an existing
// category.
func validCategoryIDs(db *gorm.DB, ids []int) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	var n int64
	if err := db.Model(&model.Category{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return false, err
	}
	return n == int64(len(ids)), nil
}

// linkImages associates each referenced image with the post, deduplicating
// media rows by file path. The upsert makes find-or-create atomic: a
// concurrent request for the same path lands on the same row.
func linkImages(db *gorm.DB, post *model.Post, urls []string, uploadedBy int) error {
	seen := make(map[string]bool, len(urls))
	for _, raw := range urls {
		rel := normalizeImagePath(raw)
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true

		media := model.Media{
			FileName:   path.Base(rel),
			FilePath:   rel,
			FileType:   "image",
			UploadedBy: uploadedBy,
			UploadedAt: time.Now(),
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_path"}},
			DoNothing: true,
		}).Create(&media).Error; err != nil {
			return fmt.Errorf("failed to upsert media: %w", err)
		}

		// Re-read: on conflict the insert leaves the id unset.
		if err := db.Where("file_path = ?", rel).First(&media).Error; err != nil {
			return fmt.Errorf("failed to load media: %w", err)
		}
		if err := db.Model(post).Association("Media").Append(&media); err != nil {
			return fmt.Errorf("failed to associate media: %w", err)
		}
	}
	return nil
}

// withRelations preloads the associations returned with every post.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Categories").Preload("Media")
}
