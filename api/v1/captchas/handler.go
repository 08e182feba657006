package captchas

import (
	"codeclover/internal/captcha"
	"codeclover/internal/httpx"

	"github.com/gin-gonic/gin"
)

// Handler serves CAPTCHA challenge endpoints.
type Handler struct {
	service *captcha.Service
}

// NewHandler creates the captcha handler.
func NewHandler(service *captcha.Service) *Handler {
	return &Handler{service: service}
}

// Generate issues a fresh challenge. The answer never leaves the server.
func (h *Handler) Generate(c *gin.Context) {
	challenge, err := h.service.Generate()
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("error generating captcha", err))
		return
	}
	httpx.OK(c, gin.H{
		"id":       challenge.ID,
		"question": challenge.Question,
	})
}

// VerifyRequest represents the verification request body
type VerifyRequest struct {
	ID     string `json:"id" binding:"required"`
	Answer string `json:"answer" binding:"required"`
}

// Verify consumes a challenge and reports the result. The challenge is
// spent either way; a failed attempt requires a newly generated one.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("id and answer are required"))
		return
	}

	valid, err := h.service.Verify(req.ID, req.Answer)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("error verifying captcha", err))
		return
	}

	httpx.OK(c, gin.H{"valid": valid})
}
