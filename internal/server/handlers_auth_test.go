package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthRegister_Success(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secretpass1",
	}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&resp)
	data := resp["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	if user["username"] != "alice" {
		t.Errorf("expected username 'alice', got %v", user["username"])
	}
	if _, ok := user["passwordHash"]; ok {
		t.Error("password hash must not appear in responses")
	}
}

func TestAuthRegister_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []map[string]string{
		{"email": "a@example.com", "password": "secretpass1"},                        // missing username
		{"username": "bob", "email": "not-an-email", "password": "secretpass1"},     // bad email
		{"username": "bob", "email": "bob@example.com", "password": "short"},        // short password
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, body))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %v: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAuthRegister_DuplicateUsername(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv, "alice", "alice@example.com", "secretpass1")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secretpass1",
	}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Code != "conflict" {
		t.Errorf("expected code 'conflict', got %q", resp.Code)
	}
}

func TestAuthLogin_WrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv, "alice", "alice@example.com", "secretpass1")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"username": "alice",
		"password": "wrongpass99",
	}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthLogin_UnknownUserSameResponse(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"username": "nobody",
		"password": "whatever123",
	}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Error != "invalid credentials" {
		t.Errorf("unknown user must get the same error as a bad password, got %q", resp.Error)
	}
}

func TestAuthLogin_ByEmail(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv, "alice", "alice@example.com", "secretpass1")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"email":    "alice@example.com",
		"password": "secretpass1",
	}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMe(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv, "alice", "alice@example.com", "secretpass1")

	req := authedRequest(t, http.MethodGet, "/api/auth/me", token, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&resp)
	user := resp["data"].(map[string]interface{})["user"].(map[string]interface{})
	if user["email"] != "alice@example.com" {
		t.Errorf("expected alice@example.com, got %v", user["email"])
	}
}

func TestAuthMe_Unauthenticated(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRefresh(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv, "alice", "alice@example.com", "secretpass1")

	// Login again to capture the refresh token
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"username": "alice",
		"password": "secretpass1",
	}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var loginResp struct {
		Data struct {
			Token        string `json:"token"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&loginResp)
	if loginResp.Data.RefreshToken == "" {
		t.Fatal("login returned no refresh token")
	}

	// Exchange the refresh token for a new access token
	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", jsonBody(t, map[string]string{
		"refreshToken": loginResp.Data.RefreshToken,
	}))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var refreshResp struct {
		Data struct {
			Token        string `json:"token"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&refreshResp)
	if refreshResp.Data.Token == "" || refreshResp.Data.RefreshToken == "" {
		t.Fatal("refresh did not return a rotated token pair")
	}
	if refreshResp.Data.RefreshToken == loginResp.Data.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The spent refresh token must be rejected on reuse
	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", jsonBody(t, map[string]string{
		"refreshToken": loginResp.Data.RefreshToken,
	}))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: expected 401, got %d", rec.Code)
	}

	// An access token must not be accepted as a refresh token
	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", jsonBody(t, map[string]string{
		"refreshToken": loginResp.Data.Token,
	}))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("access token used as refresh: expected 401, got %d", rec.Code)
	}
}

func TestAuthRefreshToken_RejectedForAPIAccess(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv, "alice", "alice@example.com", "secretpass1")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"username": "alice",
		"password": "secretpass1",
	}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var loginResp struct {
		Data struct {
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&loginResp)

	req = authedRequest(t, http.MethodGet, "/api/portfolios", loginResp.Data.RefreshToken, nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token on API route: expected 401, got %d", rec.Code)
	}
}

func TestAuthLogout_RevokesToken(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv, "alice", "alice@example.com", "secretpass1")

	req := authedRequest(t, http.MethodPost, "/api/auth/logout", token, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Revoked token must no longer work
	req = authedRequest(t, http.MethodGet, "/api/auth/me", token, nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token: expected 401, got %d", rec.Code)
	}
}

func TestValidateJWT_RejectsTamperedToken(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv, "alice", "alice@example.com", "secretpass1")

	tampered := token[:len(token)-2] + "xx"
	req := authedRequest(t, http.MethodGet, "/api/auth/me", tampered, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("tampered token: expected 401, got %d", rec.Code)
	}
}
