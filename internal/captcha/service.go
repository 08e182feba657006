package captcha

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"codeclover/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TTL is how long a challenge stays answerable.
const TTL = 5 * time.Minute

// Service issues and consumes arithmetic CAPTCHA challenges.
type Service struct {
	db *gorm.DB
}

// NewService creates a new captcha service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Generate creates a new challenge with a 5 minute TTL. The caller must
// withhold the answer from the client.
func (s *Service) Generate() (*model.Captcha, error) {
	a := rand.Intn(10) + 1
	b := rand.Intn(10) + 1

	challenge := model.Captcha{
		ID:        uuid.NewString(),
		Question:  fmt.Sprintf("%d + %d = ?", a, b),
		Answer:    strconv.Itoa(a + b),
		ExpiresAt: time.Now().Add(TTL),
	}
	if err := s.db.Create(&challenge).Error; err != nil {
		return nil, fmt.Errorf("failed to create captcha: %w", err)
	}
	return &challenge, nil
}

// Verify consumes a challenge and reports whether the answer matched.
// Consumption is a single conditional delete keyed on id and expiry, so a
// challenge can be spent at most once even under concurrent attempts: only
// the request whose delete removed the row may report success. Unknown,
// expired or already-consumed ids report false without error.
func (s *Service) Verify(id, answer string) (bool, error) {
	if id == "" {
		return false, nil
	}

	var challenge model.Captcha
	err := s.db.Where("id = ? AND expires_at > ?", id, time.Now()).First(&challenge).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up captcha: %w", err)
	}

	res := s.db.Where("id = ? AND expires_at > ?", id, time.Now()).Delete(&model.Captcha{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to consume captcha: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race to a concurrent verification, or expired in between.
		return false, nil
	}

	return challenge.Answer == answer, nil
}

// PurgeExpired removes challenges past their TTL. Expired rows are already
// unanswerable; this only keeps the table small.
func (s *Service) PurgeExpired() (int64, error) {
	res := s.db.Where("expires_at <= ?", time.Now()).Delete(&model.Captcha{})
	return res.RowsAffected, res.Error
}
