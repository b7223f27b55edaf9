package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zerodown/zrs-backend/internal/jellyfin"
)

type stubValidator struct {
	meFn func(ctx context.Context, token string) (*jellyfin.User, error)
}

func (s *stubValidator) Me(ctx context.Context, token string) (*jellyfin.User, error) {
	return s.meFn(ctx, token)
}

func authEngine(v TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/secure", BearerAuth(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userID":   c.GetString("userID"),
			"userName": c.GetString("userName"),
		})
	})
	return r
}

func TestBearerAuth_ValidToken(t *testing.T) {
	r := authEngine(&stubValidator{
		meFn: func(_ context.Context, token string) (*jellyfin.User, error) {
			if token != "tok-123" {
				t.Fatalf("token = %q", token)
			}
			return &jellyfin.User{ID: "u1", Name: "alice"}, nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["userID"] != "u1" || body["userName"] != "alice" {
		t.Fatalf("identity not stashed: %v", body)
	}
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	called := false
	r := authEngine(&stubValidator{
		meFn: func(context.Context, string) (*jellyfin.User, error) {
			called = true
			return nil, nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if called {
		t.Fatal("validator should not be consulted without a token")
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "unauthorized" {
		t.Fatalf("code = %v", body["code"])
	}
	if body["request_id"] == "" {
		t.Fatal("expected request_id in error envelope")
	}
}

func TestBearerAuth_WrongScheme(t *testing.T) {
	r := authEngine(&stubValidator{
		meFn: func(context.Context, string) (*jellyfin.User, error) {
			t.Fatal("validator should not be consulted")
			return nil, nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwdw==")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestBearerAuth_RejectedToken(t *testing.T) {
	r := authEngine(&stubValidator{
		meFn: func(context.Context, string) (*jellyfin.User, error) {
			return nil, jellyfin.ErrInvalidCredentials
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer stale")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestBearerAuth_DirectoryOutageIsUnauthorized(t *testing.T) {
	r := authEngine(&stubValidator{
		meFn: func(context.Context, string) (*jellyfin.User, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer tok")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func Test_extractBearer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"Bearer  padded ", "padded"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := extractBearer(tc.in); got != tc.want {
			t.Errorf("extractBearer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
