package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mdavenport/folio/internal/common"
	"github.com/mdavenport/folio/internal/interfaces"
	"github.com/mdavenport/folio/internal/models"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	minPasswordLength = 8
)

// --- JWT helpers ---

// signJWT creates a signed HMAC-SHA256 access token for the given user.
func signJWT(user *models.User, config *common.AuthConfig) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"token_type": tokenTypeAccess,
		"iss":        "folio-server",
		"iat":        now.Unix(),
		"exp":        now.Add(config.GetAccessTokenExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// signRefreshJWT creates a signed refresh token. Refresh tokens carry a jti
// so individual tokens can be revoked on logout.
func signRefreshJWT(user *models.User, config *common.AuthConfig) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":        uuid.New().String(),
		"sub":        user.ID,
		"token_type": tokenTypeRefresh,
		"iss":        "folio-server",
		"iat":        now.Unix(),
		"exp":        now.Add(config.GetRefreshTokenExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// validateJWT parses and validates a JWT token string using the given secret.
func validateJWT(tokenString string, secret []byte) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return token, claims, nil
}

// claimExpiry returns the exp claim as a time, or the fallback if absent.
func claimExpiry(claims jwt.MapClaims, fallback time.Duration) time.Time {
	if exp, ok := claims["exp"].(float64); ok {
		return time.Unix(int64(exp), 0)
	}
	return time.Now().Add(fallback)
}

// userResponse builds a response map for a user. Password hashes never leave the server.
func userResponse(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":        user.ID,
		"username":  user.Username,
		"email":     user.Email,
		"createdAt": user.CreatedAt,
	}
}

// --- Handlers ---

// handleAuthRegister handles POST /api/auth/register.
func (s *Server) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" {
		WriteError(w, http.StatusBadRequest, "username is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		WriteError(w, http.StatusBadRequest, "a valid email address is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		return
	}

	ctx := r.Context()
	users := s.app.Storage.UserStore()

	if _, err := users.GetUserByUsername(ctx, req.Username); err == nil {
		WriteErrorWithCode(w, http.StatusConflict, "username is already taken", "conflict")
		return
	}
	if _, err := users.GetUserByEmail(ctx, req.Email); err == nil {
		WriteErrorWithCode(w, http.StatusConflict, "email is already registered", "conflict")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if err := users.SaveUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("username", req.Username).Msg("Failed to save user")
		WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"user": userResponse(user),
		},
	})
}

// handleAuthLogin handles POST /api/auth/login.
// Accepts either username or email as the identifier.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(strings.ToLower(req.Email))
	}
	if identifier == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "username (or email) and password are required")
		return
	}

	ctx := r.Context()
	users := s.app.Storage.UserStore()

	user, err := users.GetUserByUsername(ctx, identifier)
	if err != nil {
		user, err = users.GetUserByEmail(ctx, strings.ToLower(identifier))
	}
	if err != nil {
		// Same response as a bad password so account existence is not leaked.
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	accessToken, err := signJWT(user, &s.app.Config.Auth)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign access token")
		WriteError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	refreshToken, err := signRefreshJWT(user, &s.app.Config.Auth)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign refresh token")
		WriteError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"token":        accessToken,
			"refreshToken": refreshToken,
			"expiresIn":    int(s.app.Config.Auth.GetAccessTokenExpiry().Seconds()),
			"user":         userResponse(user),
		},
	})
}

// handleAuthRefresh handles POST /api/auth/refresh — exchange a refresh token
// for a fresh access/refresh token pair. The presented refresh token is revoked
// so each refresh token can be used at most once. Access tokens are rejected here.
func (s *Server) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		WriteError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	if s.blacklist.Contains(req.RefreshToken) {
		WriteError(w, http.StatusUnauthorized, "refresh token has been revoked")
		return
	}

	_, claims, err := validateJWT(req.RefreshToken, []byte(s.app.Config.Auth.JWTSecret))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != tokenTypeRefresh {
		WriteError(w, http.StatusUnauthorized, "token is not a refresh token")
		return
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		WriteError(w, http.StatusUnauthorized, "invalid token claims")
		return
	}

	user, err := s.app.Storage.UserStore().GetUser(r.Context(), sub)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "user not found")
		return
	}

	accessToken, err := signJWT(user, &s.app.Config.Auth)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign access token")
		WriteError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	refreshToken, err := signRefreshJWT(user, &s.app.Config.Auth)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign refresh token")
		WriteError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	// Rotate: the old refresh token is spent.
	s.blacklist.Add(req.RefreshToken, claimExpiry(claims, s.app.Config.Auth.GetRefreshTokenExpiry()))

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"token":        accessToken,
			"refreshToken": refreshToken,
			"expiresIn":    int(s.app.Config.Auth.GetAccessTokenExpiry().Seconds()),
		},
	})
}

// handleAuthLogout handles POST /api/auth/logout — revoke the presented
// access token and optionally the refresh token from the body.
func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	authHeader := r.Header.Get("Authorization")
	accessToken := strings.TrimPrefix(authHeader, "Bearer ")
	if _, claims, err := validateJWT(accessToken, []byte(s.app.Config.Auth.JWTSecret)); err == nil {
		s.blacklist.Add(accessToken, claimExpiry(claims, s.app.Config.Auth.GetAccessTokenExpiry()))
	}

	// Body is optional; a logout without a refresh token still revokes the access token.
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if r.Body != nil {
		decodeOptionalJSON(r, &req)
	}
	if req.RefreshToken != "" {
		if _, claims, err := validateJWT(req.RefreshToken, []byte(s.app.Config.Auth.JWTSecret)); err == nil {
			s.blacklist.Add(req.RefreshToken, claimExpiry(claims, s.app.Config.Auth.GetRefreshTokenExpiry()))
		}
	}

	s.logger.Info().Str("user_id", uc.UserID).Msg("User logged out")

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAuthMe handles GET /api/auth/me — return the authenticated user.
func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uc := requireUser(w, r)
	if uc == nil {
		return
	}

	user, err := s.app.Storage.UserStore().GetUser(r.Context(), uc.UserID)
	if err != nil {
		if isStoreNotFound(err) {
			WriteError(w, http.StatusUnauthorized, "user not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"user": userResponse(user),
		},
	})
}

// decodeOptionalJSON decodes a JSON body into v, tolerating an empty body.
func decodeOptionalJSON(r *http.Request, v interface{}) {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	json.NewDecoder(r.Body).Decode(v)
}

func isStoreNotFound(err error) bool {
	return errors.Is(err, interfaces.ErrNotFound)
}
