package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeclover/internal/auth"
	"codeclover/internal/httpx"
	"codeclover/internal/model"

	"github.com/gin-gonic/gin"
)

func setupProtected(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		httpx.OK(c, gin.H{"uid": CurrentUID(c), "role": CurrentRole(c)})
	})
	r.GET("/protected", handlers...)
	return r
}

func request(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired_MissingHeader(t *testing.T) {
	auth.InitJWT("test-secret")
	w := request(setupProtected(), "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestAuthRequired_MalformedHeader(t *testing.T) {
	auth.InitJWT("test-secret")
	r := setupProtected()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	auth.InitJWT("test-secret")
	w := request(setupProtected(), "not.a.token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestAuthRequired_ExpiredToken(t *testing.T) {
	auth.InitJWT("test-secret")
	token, err := auth.GenerateToken(1, "u", "user", time.Now().Add(-time.Hour), "codeclover")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	w := request(setupProtected(), token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}

	var resp httpx.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if resp.Code != httpx.CodeTokenExpired {
		t.Errorf("Expected code %d, got %d", httpx.CodeTokenExpired, resp.Code)
	}
}

func TestAuthRequired_ValidToken(t *testing.T) {
	auth.InitJWT("test-secret")
	token, err := auth.GenerateToken(7, "u", "editor", time.Now().Add(time.Hour), "codeclover")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	w := request(setupProtected(), token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Data struct {
			UID  int    `json:"uid"`
			Role string `json:"role"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if resp.Data.UID != 7 || resp.Data.Role != "editor" {
		t.Errorf("Expected uid=7 role=editor, got uid=%d role=%s", resp.Data.UID, resp.Data.Role)
	}
}

func TestRequireRole(t *testing.T) {
	auth.InitJWT("test-secret")
	r := setupProtected(RequireRole("admin"))

	userToken, _ := auth.GenerateToken(1, "u", "user", time.Now().Add(time.Hour), "codeclover")
	if w := request(r, userToken); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for user role, got %d", w.Code)
	}

	adminToken, _ := auth.GenerateToken(2, "a", "admin", time.Now().Add(time.Hour), "codeclover")
	if w := request(r, adminToken); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin role, got %d", w.Code)
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	auth.InitJWT("test-secret")
	r := setupProtected(RequireRole("editor", "admin"))

	editorToken, _ := auth.GenerateToken(3, "e", "editor", time.Now().Add(time.Hour), "codeclover")
	if w := request(r, editorToken); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for editor role, got %d", w.Code)
	}

	userToken, _ := auth.GenerateToken(4, "u", "user", time.Now().Add(time.Hour), "codeclover")
	if w := request(r, userToken); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for user role, got %d", w.Code)
	}
}

func TestIsOwnerOrAdmin(t *testing.T) {
	auth.InitJWT("test-secret")
	gin.SetMode(gin.TestMode)

	const ownerID = 42
	r := gin.New()
	r.GET("/resource", AuthRequired(), func(c *gin.Context) {
		if !IsOwnerOrAdmin(c, ownerID) {
			httpx.FailErr(c, httpx.ErrForbidden(""))
			return
		}
		httpx.OK(c, nil)
	})

	cases := []struct {
		name string
		uid  int
		role string
		want int
	}{
		{"owner", ownerID, model.RoleUser, http.StatusOK},
		{"admin non-owner", 7, model.RoleAdmin, http.StatusOK},
		{"editor non-owner", 7, model.RoleEditor, http.StatusForbidden},
		{"user non-owner", 7, model.RoleUser, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := auth.GenerateToken(tc.uid, "someone", tc.role, time.Now().Add(time.Hour), "test")
			if err != nil {
				t.Fatalf("Failed to generate token: %v", err)
			}
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/resource", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("Expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}
