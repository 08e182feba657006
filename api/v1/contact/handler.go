package contact

import (
	"codeclover/internal/captcha"
	"codeclover/internal/httpx"
	"codeclover/internal/mailer"
	"codeclover/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Handler serves the public contact form.
type Handler struct {
	db       *gorm.DB
	captchas *captcha.Service
	mailer   *mailer.Service
	logger   *logrus.Entry
}

// NewHandler creates the contact handler.
func NewHandler(db *gorm.DB, captchas *captcha.Service, mail *mailer.Service) *Handler {
	return &Handler{
		db:       db,
		captchas: captchas,
		mailer:   mail,
		logger:   logrus.WithField("component", "contact"),
	}
}

// SubmitRequest represents the contact form request body
type SubmitRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Message       string `json:"message" binding:"required"`
	CaptchaID     string `json:"captchaId" binding:"required"`
	CaptchaAnswer string `json:"captchaAnswer" binding:"required"`
}

// Submit persists a contact message and notifies the operator. Unlike
// registration mail, delivery failure here fails the request: the sender
// is told their message did not go through.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("name, a valid email, message, captchaId and captchaAnswer are required"))
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

	contact := model.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}
	if err := h.db.Create(&contact).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to save contact message", err))
		return
	}

	if err := h.mailer.SendContactEmails(contact.Name, contact.Email, contact.Message); err != nil {
		h.logger.WithError(err).Error("contact mail delivery failed")
		httpx.FailErr(c, httpx.ErrMailDelivery(err))
		return
	}

	httpx.OKMsg(c, "your message has been sent", gin.H{"id": contact.ID})
}
