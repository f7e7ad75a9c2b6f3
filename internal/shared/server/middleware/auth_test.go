package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/shared/auth"
)

func TestSessionAllowsOptionsWithoutToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Session())
	router.OPTIONS("/api/v1/patient/wound/add-update", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/patient/wound/add-update", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestSessionMissingTokenRedirectsToLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Session())
	router.GET("/api/v1/me", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	var body struct {
		Error struct {
			Code     string `json:"code"`
			Redirect string `json:"redirect"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "session_expired" || body.Error.Redirect != "/login" {
		t.Fatalf("unexpected error body %+v", body.Error)
	}
}

func TestSessionPublicPrefixSkipsToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Session("/api/v1/health"))
	router.GET("/api/v1/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestSessionSignedTokenExposesClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := auth.SignJWT(auth.Claims{Sub: "specialist:12", Role: "specialist", Name: "Dr. Reis"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	var subject, role, forwarded string
	router := gin.New()
	router.Use(Session())
	router.GET("/probe", func(c *gin.Context) {
		subject = SubjectFromContext(c)
		role = RoleFromContext(c)
		forwarded = AccessTokenFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if subject != "specialist:12" || role != "specialist" {
		t.Fatalf("unexpected identity subject=%q role=%q", subject, role)
	}
	if forwarded != token {
		t.Fatalf("expected raw token to be kept for forwarding")
	}
}

func TestSessionOpaqueTokenIsHashed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var subject string
	router := gin.New()
	router.Use(Session())
	router.GET("/probe", func(c *gin.Context) {
		subject = SubjectFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer opaque-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(subject) != len("token:")+24 {
		t.Fatalf("expected hashed subject, got %q", subject)
	}
}
