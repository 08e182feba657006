package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	InitJWT("test-secret-key")

	uid := 1
	role := "admin"
	expireAt := time.Now().Add(time.Hour)
	issuer := "codeclover"

	token, err := GenerateToken(uid, "testuser", role, expireAt, issuer)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	if token == "" {
		t.Error("Expected non-empty token")
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() failed: %v", err)
	}

	if claims.UID != uid {
		t.Errorf("Expected UID %d, got %d", uid, claims.UID)
	}

	if claims.Role != role {
		t.Errorf("Expected role %s, got %s", role, claims.Role)
	}

	if claims.Issuer != issuer {
		t.Errorf("Expected issuer %s, got %s", issuer, claims.Issuer)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	InitJWT("test-secret-key")

	_, err := ParseToken("invalid.token.string")
	if err == nil {
		t.Error("ParseToken() should fail for invalid token")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	InitJWT("test-secret-key")

	expireAt := time.Now().Add(-1 * time.Hour)
	token, err := GenerateToken(1, "testuser", "admin", expireAt, "codeclover")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	_, err = ParseToken(token)
	if err == nil {
		t.Error("ParseToken() should fail for expired token")
	}
}

func TestParseExpiredToken_RecoversClaims(t *testing.T) {
	InitJWT("test-secret-key")

	expireAt := time.Now().Add(-2 * time.Hour)
	token, err := GenerateToken(42, "editoruser", "editor", expireAt, "codeclover")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	claims, err := ParseExpiredToken(token)
	if err != nil {
		t.Fatalf("ParseExpiredToken() failed: %v", err)
	}

	if claims.UID != 42 {
		t.Errorf("Expected UID 42, got %d", claims.UID)
	}
	if claims.Role != "editor" {
		t.Errorf("Expected role editor, got %s", claims.Role)
	}
}

func TestParseExpiredToken_WrongSecret(t *testing.T) {
	InitJWT("secret-1")

	token, err := GenerateToken(1, "testuser", "admin", time.Now().Add(-time.Hour), "codeclover")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	InitJWT("secret-2")

	if _, err = ParseExpiredToken(token); err == nil {
		t.Error("ParseExpiredToken() should fail when signature does not verify")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	InitJWT("secret-1")

	token, err := GenerateToken(1, "testuser", "admin", time.Now().Add(time.Hour), "codeclover")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	InitJWT("secret-2")

	if _, err = ParseToken(token); err == nil {
		t.Error("ParseToken() should fail when secret is different")
	}
}

func TestGenerateToken_UninitializedSecret(t *testing.T) {
	jwtSecret = nil

	if _, err := GenerateToken(1, "testuser", "admin", time.Now().Add(time.Hour), "codeclover"); err == nil {
		t.Error("GenerateToken() should fail without initialized secret")
	}
}
