package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"codeclover/api/v1/middleware"
	"codeclover/internal/auth"
	"codeclover/internal/captcha"
	"codeclover/internal/config"
	"codeclover/internal/mailer"
	"codeclover/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", ExpireMinutes: 60, Issuer: "codeclover-test"},
		App: config.AppConfig{Name: "codeclover"},
	}
}

func setupTest(t *testing.T) (*gorm.DB, *gin.Engine, *captcha.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Captcha{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	cfg := testConfig()
	auth.InitJWT(cfg.JWT.Secret)
	captchaService := captcha.NewService(db)
	h := NewHandler(db, cfg, captchaService, mailer.New(cfg))

	r := gin.New()
	r.POST("/api/users/register", h.Register)
	r.POST("/api/users/login", h.Login)
	r.POST("/api/users/refresh-token", h.RefreshToken)
	r.GET("/api/users/verify-token", middleware.AuthRequired(), h.VerifyToken)
	admin := r.Group("/api/users", middleware.AuthRequired(), middleware.RequireRole(model.RoleAdmin))
	admin.GET("", h.List)
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)

	return db, r, captchaService
}

func postJSON(r *gin.Engine, path string, body any, token string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// solveCaptcha generates a fresh challenge and returns id plus answer.
func solveCaptcha(t *testing.T, svc *captcha.Service) (string, string) {
	t.Helper()
	challenge, err := svc.Generate()
	if err != nil {
		t.Fatalf("Failed to generate captcha: %v", err)
	}
	parts := strings.Split(strings.TrimSuffix(challenge.Question, " = ?"), " + ")
	a, _ := strconv.Atoi(parts[0])
	b, _ := strconv.Atoi(parts[1])
	return challenge.ID, strconv.Itoa(a + b)
}

func createUser(t *testing.T, db *gorm.DB, username, email, password, role string, active bool) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func loginToken(t *testing.T, r *gin.Engine, email, password string) string {
	t.Helper()
	w := postJSON(r, "/api/users/login", gin.H{"email": email, "password": password}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed with status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data LoginResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	return resp.Data.Token
}

func TestRegister(t *testing.T) {
	db, r, captchaService := setupTest(t)

	id, answer := solveCaptcha(t, captchaService)
	w := postJSON(r, "/api/users/register", gin.H{
		"username":      "alice",
		"email":         "alice@example.com",
		"password":      "secret-pass-1",
		"captchaId":     id,
		"captchaAnswer": answer,
	}, "")

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var user model.User
	if err := db.Where("username = ?", "alice").First(&user).Error; err != nil {
		t.Fatalf("Registered user not found: %v", err)
	}
	if user.Active {
		t.Error("Expected new account to be inactive")
	}
	if user.Role != model.RoleUser {
		t.Errorf("Expected role %q, got %q", model.RoleUser, user.Role)
	}
	if user.PasswordHash == "secret-pass-1" {
		t.Error("Password stored in plaintext")
	}
}

func TestRegister_WrongCaptcha(t *testing.T) {
	_, r, captchaService := setupTest(t)

	id, _ := solveCaptcha(t, captchaService)
	w := postJSON(r, "/api/users/register", gin.H{
		"username":      "bob",
		"email":         "bob@example.com",
		"password":      "secret-pass-1",
		"captchaId":     id,
		"captchaAnswer": "-1",
	}, "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	db, r, captchaService := setupTest(t)
	createUser(t, db, "carol", "carol@example.com", "secret-pass-1", model.RoleUser, true)

	id, answer := solveCaptcha(t, captchaService)
	w := postJSON(r, "/api/users/register", gin.H{
		"username":      "carol",
		"email":         "other@example.com",
		"password":      "secret-pass-1",
		"captchaId":     id,
		"captchaAnswer": answer,
	}, "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate username, got %d", w.Code)
	}
}

func TestLogin(t *testing.T) {
	db, r, _ := setupTest(t)
	createUser(t, db, "dave", "dave@example.com", "secret-pass-1", model.RoleUser, true)

	token := loginToken(t, r, "dave@example.com", "secret-pass-1")
	if token == "" {
		t.Fatal("Expected non-empty token")
	}

	claims, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("Issued token does not parse: %v", err)
	}
	if claims.Role != model.RoleUser {
		t.Errorf("Expected role %q in claims, got %q", model.RoleUser, claims.Role)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	db, r, _ := setupTest(t)
	createUser(t, db, "eve", "eve@example.com", "secret-pass-1", model.RoleUser, false)

	w := postJSON(r, "/api/users/login", gin.H{"email": "eve@example.com", "password": "secret-pass-1"}, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for inactive account, got %d", w.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, r, _ := setupTest(t)
	createUser(t, db, "frank", "frank@example.com", "secret-pass-1", model.RoleUser, true)

	w := postJSON(r, "/api/users/login", gin.H{"email": "frank@example.com", "password": "wrong"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for wrong password, got %d", w.Code)
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	db, r, _ := setupTest(t)
	user := createUser(t, db, "grace", "grace@example.com", "secret-pass-1", model.RoleUser, true)

	expired, err := auth.GenerateToken(user.ID, user.Username, user.Role, time.Now().Add(-time.Hour), "codeclover-test")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	w := postJSON(r, "/api/users/refresh-token", gin.H{"token": expired}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected expired token to refresh, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if _, err := auth.ParseToken(resp.Data.Token); err != nil {
		t.Errorf("Refreshed token does not validate: %v", err)
	}
}

func TestRefreshToken_TamperedSignature(t *testing.T) {
	db, r, _ := setupTest(t)
	user := createUser(t, db, "heidi", "heidi@example.com", "secret-pass-1", model.RoleUser, true)

	token, _ := auth.GenerateToken(user.ID, user.Username, user.Role, time.Now().Add(time.Hour), "codeclover-test")
	tampered := token[:len(token)-2] + "xx"

	w := postJSON(r, "/api/users/refresh-token", gin.H{"token": tampered}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for tampered token, got %d", w.Code)
	}
}

func TestRefreshToken_DeletedUser(t *testing.T) {
	db, r, _ := setupTest(t)
	user := createUser(t, db, "ivan", "ivan@example.com", "secret-pass-1", model.RoleUser, true)
	token, _ := auth.GenerateToken(user.ID, user.Username, user.Role, time.Now().Add(time.Hour), "codeclover-test")

	if err := db.Delete(&model.User{}, user.ID).Error; err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	w := postJSON(r, "/api/users/refresh-token", gin.H{"token": token}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 when user no longer exists, got %d", w.Code)
	}
}

func TestAdminEndpoints_RequireAdmin(t *testing.T) {
	db, r, _ := setupTest(t)
	createUser(t, db, "judy", "judy@example.com", "secret-pass-1", model.RoleUser, true)
	token := loginToken(t, r, "judy@example.com", "secret-pass-1")

	req, _ := http.NewRequest("GET", "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d", w.Code)
	}
}

func TestUpdateUser_Activate(t *testing.T) {
	db, r, _ := setupTest(t)
	createUser(t, db, "admin", "admin@example.com", "secret-pass-1", model.RoleAdmin, true)
	target := createUser(t, db, "kent", "kent@example.com", "secret-pass-1", model.RoleUser, false)
	token := loginToken(t, r, "admin@example.com", "secret-pass-1")

	active := true
	canUpload := true
	b, _ := json.Marshal(UpdateRequest{Active: &active, CanUploadImages: &canUpload})
	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/users/%d", target.ID), bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated model.User
	if err := db.First(&updated, target.ID).Error; err != nil {
		t.Fatalf("Failed to reload user: %v", err)
	}
	if !updated.Active {
		t.Error("Expected user to be activated")
	}
	if !updated.CanUploadImages {
		t.Error("Expected upload permission to be granted")
	}
}

func TestUpdateUser_InvalidRole(t *testing.T) {
	db, r, _ := setupTest(t)
	createUser(t, db, "admin", "admin@example.com", "secret-pass-1", model.RoleAdmin, true)
	target := createUser(t, db, "lena", "lena@example.com", "secret-pass-1", model.RoleUser, true)
	token := loginToken(t, r, "admin@example.com", "secret-pass-1")

	role := "superuser"
	b, _ := json.Marshal(UpdateRequest{Role: &role})
	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/users/%d", target.ID), bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid role, got %d", w.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	db, r, _ := setupTest(t)
	createUser(t, db, "admin", "admin@example.com", "secret-pass-1", model.RoleAdmin, true)
	target := createUser(t, db, "mike", "mike@example.com", "secret-pass-1", model.RoleUser, true)
	token := loginToken(t, r, "admin@example.com", "secret-pass-1")

	req, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/users/%d", target.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Deleting again reports not found
	req2, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/users/%d", target.ID), nil)
	req2.Header.Set("Authorization", "Bearer "+token)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w2.Code)
	}
}
