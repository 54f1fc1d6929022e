package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/core/domain"
)

type stubUserService struct {
	updated *domain.UserUpdate
	deleted string
	err     error
}

func (s *stubUserService) Get(_ context.Context, id string) (*domain.SafeUser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.SafeUser{ID: id, Role: domain.RoleUser}, nil
}

func (s *stubUserService) Update(_ context.Context, in domain.UserUpdate) (*domain.SafeUser, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updated = &in
	out := &domain.SafeUser{ID: in.ID}
	if in.Role != nil {
		out.Role = *in.Role
	}
	return out, nil
}

func (s *stubUserService) Delete(_ context.Context, id string) error {
	s.deleted = id
	return s.err
}

func userContext(e *echo.Echo, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/api/v1/users/u1", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/users/:id")
	c.SetParamNames("id")
	c.SetParamValues("u1")
	return c, rec
}

func TestUserHandler_Get(t *testing.T) {
	e := newTestEcho()
	c, rec := userContext(e, http.MethodGet, "")

	if err := NewUserHandler(&stubUserService{}).Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	user := decode(t, rec)["user"].(map[string]any)
	if user["id"] != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	e := newTestEcho()
	c, _ := userContext(e, http.MethodGet, "")

	err := NewUserHandler(&stubUserService{err: domain.ErrUserNotFound}).Get(c)
	if err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserHandler_Update(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{}
	c, rec := userContext(e, http.MethodPatch, `{"role":"moderator"}`)

	if err := NewUserHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.updated == nil || stub.updated.ID != "u1" || stub.updated.Role == nil || *stub.updated.Role != domain.RoleModerator {
		t.Fatalf("unexpected update %+v", stub.updated)
	}
	if stub.updated.Name != nil || stub.updated.Email != nil {
		t.Fatalf("absent fields must stay nil")
	}
}

func TestUserHandler_Update_UnknownRole(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{}
	c, rec := userContext(e, http.MethodPatch, `{"role":"root"}`)

	_ = NewUserHandler(stub).Update(c)

	if rec.Code != http.StatusBadRequest || stub.updated != nil {
		t.Fatalf("expected 400 without update, got %d", rec.Code)
	}
}

func TestUserHandler_Update_EmailTaken(t *testing.T) {
	e := newTestEcho()
	c, rec := userContext(e, http.MethodPatch, `{"email":"taken@example.com"}`)

	_ = NewUserHandler(&stubUserService{err: domain.ErrUserExists}).Update(c)

	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != "User already exists" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandler_Delete(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{}
	c, rec := userContext(e, http.MethodDelete, "")

	if err := NewUserHandler(stub).Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || stub.deleted != "u1" {
		t.Fatalf("unexpected delete %d %q", rec.Code, stub.deleted)
	}
}
