package users

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"codeclover/api/v1/middleware"
	"codeclover/internal/auth"
	"codeclover/internal/captcha"
	"codeclover/internal/config"
	"codeclover/internal/httpx"
	"codeclover/internal/mailer"
	"codeclover/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Handler serves account and session endpoints.
type Handler struct {
	db       *gorm.DB
	cfg      *config.Config
	captchas *captcha.Service
	mailer   *mailer.Service
	logger   *logrus.Entry
}

// NewHandler creates the users handler.
func NewHandler(db *gorm.DB, cfg *config.Config, captchas *captcha.Service, mail *mailer.Service) *Handler {
	return &Handler{
		db:       db,
		cfg:      cfg,
		captchas: captchas,
		mailer:   mail,
		logger:   logrus.WithField("component", "users"),
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username      string `json:"username" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	CaptchaID     string `json:"captchaId" binding:"required"`
	CaptchaAnswer string `json:"captchaAnswer" binding:"required"`
}

// UserInfo represents user information in responses
type UserInfo struct {
	ID              int    `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	Active          bool   `json:"active"`
	CanUploadImages bool   `json:"can_upload_images"`
}

func toUserInfo(u *model.User) UserInfo {
	return UserInfo{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role,
		Active:          u.Active,
		CanUploadImages: u.CanUploadImages,
	}
}

// Register handles new account registration. The account starts inactive;
// registration never logs the user in.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	valid, err := h.captchas.Verify(req.CaptchaID, req.CaptchaAnswer)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to verify captcha", err))
		return
	}
	if !valid {
		httpx.FailErr(c, httpx.ErrInvalidCaptcha())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to hash password", err))
		return
	}

	user := model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Active:       false,
	}
	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.FailErr(c, httpx.ErrAlreadyExists("username or email already taken"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create user", err))
		return
	}

	// Mail failures must not fail the registration.
	if err := h.mailer.SendRegistrationEmails(user.Email, user.Username); err != nil {
		h.logger.WithError(err).Warn("Failed to send registration emails")
	}

	httpx.Created(c, gin.H{
		"message": "User registered successfully. Account pending activation.",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents login response data
type LoginResponse struct {
	Token    string   `json:"token"`
	ExpireAt string   `json:"expireAt"`
	User     UserInfo `json:"user"`
}

// Login verifies credentials and issues a session token. Inactive
// accounts are rejected before the password is checked.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("email and password are required"))
		return
	}

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown email and wrong password share one error
			httpx.FailErr(c, httpx.ErrInvalidCredentials())
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	if !user.Active {
		httpx.FailErr(c, httpx.ErrNotActivated())
		return
	}

	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		httpx.FailErr(c, httpx.ErrInvalidCredentials())
		return
	}

	expireAt := time.Now().Add(time.Duration(h.cfg.JWT.ExpireMinutes) * time.Minute)
	token, err := auth.GenerateToken(user.ID, user.Username, user.Role, expireAt, h.cfg.JWT.Issuer)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to generate token", err))
		return
	}

	httpx.OK(c, LoginResponse{
		Token:    token,
		ExpireAt: expireAt.Format(time.RFC3339),
		User:     toUserInfo(&user),
	})
}

// RefreshRequest represents the refresh-token request body
type RefreshRequest struct {
	Token string `json:"token" binding:"required"`
}

// RefreshToken exchanges an authentic but possibly expired token for a
// fresh one bound to the same user. The signature must verify and the
// user must still exist.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("token is required"))
		return
	}

	claims, err := auth.ParseExpiredToken(req.Token)
	if err != nil {
		httpx.FailErr(c, httpx.NewAppError(http.StatusBadRequest, httpx.CodeInvalidToken, "invalid token", err))
		return
	}

	var user model.User
	if err := h.db.First(&user, claims.UID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.NewAppError(http.StatusBadRequest, httpx.CodeInvalidToken, "invalid token", nil))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	expireAt := time.Now().Add(time.Duration(h.cfg.JWT.ExpireMinutes) * time.Minute)
	token, err := auth.GenerateToken(user.ID, user.Username, user.Role, expireAt, h.cfg.JWT.Issuer)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to generate token", err))
		return
	}

	httpx.OK(c, gin.H{"token": token, "expireAt": expireAt.Format(time.RFC3339)})
}

// VerifyToken lets the client confirm its session is still valid. Backs
// the SPA's periodic session poll.
func (h *Handler) VerifyToken(c *gin.Context) {
	httpx.OK(c, gin.H{
		"isValid": true,
		"user": gin.H{
			"id":   middleware.CurrentUID(c),
			"role": middleware.CurrentRole(c),
		},
	})
}

// List returns all users. Admin only.
func (h *Handler) List(c *gin.Context) {
	var users []model.User
	if err := h.db.Order("id").Find(&users).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to query users", err))
		return
	}

	list := make([]UserInfo, 0, len(users))
	for i := range users {
		list = append(list, toUserInfo(&users[i]))
	}
	httpx.OK(c, list)
}

// CreateRequest represents the admin user-creation request body
type CreateRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

// Create lets an admin provision an account directly. The account is
// active immediately and defaults to the admin role, matching the
// original admin-creation path.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	role := req.Role
	if role == "" {
		role = model.RoleAdmin
	}
	if !validRole(role) {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid role"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to hash password", err))
		return
	}

	user := model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.FailErr(c, httpx.ErrAlreadyExists("username or email already taken"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create user", err))
		return
	}

	httpx.Created(c, toUserInfo(&user))
}

// UpdateRequest represents the admin user-update request body. Absent
// fields are left unchanged.
type UpdateRequest struct {
	Role            *string `json:"role"`
	Active          *bool   `json:"active"`
	CanUploadImages *bool   `json:"can_upload_images"`
}

func validRole(role string) bool {
	return role == model.RoleUser || role == model.RoleEditor || role == model.RoleAdmin
}

// Update mutates a user's role, activation state or upload permission.
// Admin only.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid user id"))
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("user not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
		return
	}

	if req.Role != nil {
		if !validRole(*req.Role) {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid role"))
			return
		}
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.CanUploadImages != nil {
		user.CanUploadImages = *req.CanUploadImages
	}

	if err := h.db.Save(&user).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to update user", err))
		return
	}

	httpx.OK(c, toUserInfo(&user))
}

// Delete removes a user. Admin only.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid user id"))
		return
	}

	res := h.db.Delete(&model.User{}, id)
	if res.Error != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete user", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("user not found"))
		return
	}

	httpx.OKMsg(c, "user deleted successfully", nil)
}
