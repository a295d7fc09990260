package service

import (
	"net/http"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestRegisterCustomer(t *testing.T) {
	h := newHarness(t)

	user, err := h.auth.RegisterCustomer(h.ctx, Credentials{Name: " Cara ", Email: "Cara@Example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != domain.RoleCustomer || user.Email != "cara@example.com" || user.Name != "Cara" || user.DepartmentID != nil {
		t.Fatalf("unexpected customer %+v", user)
	}

	_, err = h.auth.RegisterCustomer(h.ctx, Credentials{Name: "Other", Email: "CARA@example.com", Password: "secret123"})
	expectStatus(t, err, http.StatusConflict)
	_, err = h.auth.RegisterCustomer(h.ctx, Credentials{Email: "x@example.com"})
	expectStatus(t, err, http.StatusBadRequest)
	_, err = h.auth.RegisterCustomer(h.ctx, Credentials{Name: "X", Email: "x@example.com", Password: "12345"})
	expectStatus(t, err, http.StatusBadRequest)
}

func TestSuperAdminLimit(t *testing.T) {
	h := newHarness(t)
	for _, email := range []string{"one@example.com", "two@example.com"} {
		if _, err := h.auth.RegisterSuperAdmin(h.ctx, Credentials{Name: "Boss", Email: email, Password: "secret123"}); err != nil {
			t.Fatalf("register %s: %v", email, err)
		}
	}
	_, err := h.auth.RegisterSuperAdmin(h.ctx, Credentials{Name: "Boss", Email: "three@example.com", Password: "secret123"})
	expectStatus(t, err, http.StatusForbidden)

	// The cap is checked before the body is validated.
	_, err = h.auth.RegisterSuperAdmin(h.ctx, Credentials{})
	expectStatus(t, err, http.StatusForbidden)

	count, _ := h.repos.Users.CountByRole(h.ctx, domain.RoleSuperAdmin)
	if count != domain.MaxSuperAdmins {
		t.Fatalf("expected %d super admins, got %d", domain.MaxSuperAdmins, count)
	}
}

func TestLoginRefreshLogout(t *testing.T) {
	h := newHarness(t)
	user := h.user("Cara", domain.RoleCustomer, nil)

	_, _, err := h.auth.Login(h.ctx, "cara@example.com", "wrong-password")
	expectStatus(t, err, http.StatusUnauthorized)
	_, _, err = h.auth.Login(h.ctx, "nobody@example.com", "secret123")
	expectStatus(t, err, http.StatusUnauthorized)
	_, _, err = h.auth.Login(h.ctx, "", "")
	expectStatus(t, err, http.StatusBadRequest)

	got, pair, err := h.auth.Login(h.ctx, "CARA@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID || pair.AccessToken == "" || pair.RefreshToken == "" || !pair.RefreshExpiresAt.After(pair.AccessExpiresAt) {
		t.Fatalf("unexpected login result %+v", pair)
	}

	_, _, err = h.auth.Refresh(h.ctx, pair.AccessToken)
	expectStatus(t, err, http.StatusUnauthorized)
	access, _, err := h.auth.Refresh(h.ctx, pair.RefreshToken)
	if err != nil || access == "" {
		t.Fatalf("refresh: %v", err)
	}

	claims, err := h.tokens.ParseToken(pair.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.auth.Logout(h.ctx, claims, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	revoked, _ := h.revoked.IsRevoked(h.ctx, claims.ID)
	if !revoked {
		t.Fatalf("access token should be revoked")
	}
	_, _, err = h.auth.Refresh(h.ctx, pair.RefreshToken)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestLogoutRejectsForeignRefreshToken(t *testing.T) {
	h := newHarness(t)
	h.user("Cara", domain.RoleCustomer, nil)
	h.user("Carl", domain.RoleCustomer, nil)

	_, mine, _ := h.auth.Login(h.ctx, "cara@example.com", "secret123")
	_, theirs, _ := h.auth.Login(h.ctx, "carl@example.com", "secret123")
	claims, _ := h.tokens.ParseToken(mine.AccessToken)

	err := h.auth.Logout(h.ctx, claims, theirs.RefreshToken)
	expectStatus(t, err, http.StatusForbidden)
	err = h.auth.Logout(h.ctx, claims, "garbage")
	expectStatus(t, err, http.StatusUnauthorized)
	revoked, _ := h.revoked.IsRevoked(h.ctx, claims.ID)
	if revoked {
		t.Fatalf("a rejected logout must not revoke anything")
	}
}

func TestInactiveAccounts(t *testing.T) {
	h := newHarness(t)
	user := h.user("Ada", domain.RoleAdmin, nil)
	_, pair, err := h.auth.Login(h.ctx, "ada@example.com", "secret123")
	if err != nil {
		t.Fatal(err)
	}

	user.Active = false
	if err := h.repos.Users.Update(h.ctx, user); err != nil {
		t.Fatal(err)
	}
	_, _, err = h.auth.Login(h.ctx, "ada@example.com", "secret123")
	expectStatus(t, err, http.StatusForbidden)
	_, _, err = h.auth.Refresh(h.ctx, pair.RefreshToken)
	expectStatus(t, err, http.StatusForbidden)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	user := h.user("Cara", domain.RoleCustomer, nil)

	err := h.auth.ChangePassword(h.ctx, user, "wrong", "brand-new")
	expectStatus(t, err, http.StatusUnauthorized)
	err = h.auth.ChangePassword(h.ctx, user, "secret123", "short")
	expectStatus(t, err, http.StatusBadRequest)

	if err := h.auth.ChangePassword(h.ctx, user, "secret123", "brand-new"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	_, _, err = h.auth.Login(h.ctx, "cara@example.com", "secret123")
	expectStatus(t, err, http.StatusUnauthorized)
	if _, _, err := h.auth.Login(h.ctx, "cara@example.com", "brand-new"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
