package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, sub string, roles []string) string {
	t.Helper()
	claims := &Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, req *http.Request, next echo.HandlerFunc) error {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return mw(next)(c)
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", []string{"front-desk"}))

	err := runMiddleware(t, JWTMiddleware(testSecret), req, func(c echo.Context) error {
		ctx := c.Request().Context()
		if UserIDFromContext(ctx) != "user-1" {
			t.Errorf("user id = %q", UserIDFromContext(ctx))
		}
		roles := RolesFromContext(ctx)
		if len(roles) != 1 || roles[0] != "front-desk" {
			t.Errorf("roles = %v", roles)
		}
		return c.NoContent(http.StatusOK)
	})
	if err != nil {
		t.Fatalf("middleware returned %v", err)
	}
}

func TestJWTMiddlewareMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := runMiddleware(t, JWTMiddleware(testSecret), req, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
}

func TestJWTMiddlewareWrongSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", nil))

	err := runMiddleware(t, JWTMiddleware("other-secret"), req, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
}

func TestRequireRoleAllows(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u", []string{"practitioner"}))

	called := false
	chain := func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	}
	err := runMiddleware(t, JWTMiddleware(testSecret), req, func(c echo.Context) error {
		return RequireRole("practitioner")(chain)(c)
	})
	if err != nil || !called {
		t.Fatalf("err = %v, called = %v", err, called)
	}
}

func TestRequireRoleAdminBypass(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u", []string{"admin"}))

	err := runMiddleware(t, JWTMiddleware(testSecret), req, func(c echo.Context) error {
		return RequireRole("front-desk")(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c)
	})
	if err != nil {
		t.Fatalf("admin should pass any role check, got %v", err)
	}
}

func TestRequireRoleForbids(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u", []string{"practitioner"}))

	err := runMiddleware(t, JWTMiddleware(testSecret), req, func(c echo.Context) error {
		return RequireRole("front-desk")(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c)
	})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("err = %v, want 403", err)
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := runMiddleware(t, DevAuthMiddleware(), req, func(c echo.Context) error {
		roles := RolesFromContext(c.Request().Context())
		if len(roles) != 1 || roles[0] != "admin" {
			t.Errorf("roles = %v, want [admin]", roles)
		}
		return c.NoContent(http.StatusOK)
	})
	if err != nil {
		t.Fatal(err)
	}
}
