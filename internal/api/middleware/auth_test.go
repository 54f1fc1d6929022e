package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/core/domain"
)

type stubVerifier struct {
	payload *domain.TokenPayload
	ok      bool
	panics  bool
	got     string
}

func (s *stubVerifier) VerifyToken(token string) (*domain.TokenPayload, bool) {
	s.got = token
	if s.panics {
		panic("boom")
	}
	return s.payload, s.ok
}

func runAuth(t *testing.T, v *stubVerifier, header string) (*httptest.ResponseRecorder, bool, domain.Identity) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	var id domain.Identity
	handler := VerifyToken(v)(func(c echo.Context) error {
		called = true
		id, _ = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called, id
}

func TestVerifyToken_ValidToken(t *testing.T) {
	v := &stubVerifier{
		payload: &domain.TokenPayload{UserID: "u1", Email: "a@b.com", Role: domain.RoleAdmin},
		ok:      true,
	}
	rec, called, id := runAuth(t, v, "Bearer abc.def")

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if v.got != "abc.def" {
		t.Fatalf("verifier got %q", v.got)
	}
	if id.ID != "u1" || id.Email != "a@b.com" || id.Role != domain.RoleAdmin {
		t.Fatalf("identity not set: %+v", id)
	}
}

func TestVerifyToken_EmptyEmailAllowed(t *testing.T) {
	v := &stubVerifier{payload: &domain.TokenPayload{UserID: "u1"}, ok: true}
	_, called, id := runAuth(t, v, "Bearer tok")
	if !called || id.ID != "u1" || id.Email != "" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestVerifyToken_Unauthorized(t *testing.T) {
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"no token":       "Bearer",
		"blank token":    "Bearer    ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			v := &stubVerifier{ok: true, payload: &domain.TokenPayload{UserID: "u1"}}
			rec, called, _ := runAuth(t, v, header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Unauthorized") {
				t.Fatalf("unexpected body %s", rec.Body.String())
			}
			if v.got != "" {
				t.Fatalf("verifier must not be called")
			}
		})
	}
}

func TestVerifyToken_InvalidToken(t *testing.T) {
	rec, called, _ := runAuth(t, &stubVerifier{ok: false}, "Bearer bad")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Invalid token") {
		t.Fatalf("expected 401 Invalid token, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyToken_PanickingVerifier(t *testing.T) {
	rec, called, _ := runAuth(t, &stubVerifier{panics: true}, "Bearer tok")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Invalid token") {
		t.Fatalf("expected 401 Invalid token, got %d %s", rec.Code, rec.Body.String())
	}
}
