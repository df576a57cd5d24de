package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/config"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

const (
	stateCookieName = "oauthstate"
	sessionTTL      = 24 * time.Hour
	googleUserInfo  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type AuthHandler struct {
	oauthConfig   *oauth2.Config
	userInfoURL   string
	users         ports.UserService
	jwtSecret     string
	frontendURL   string
	allowedEmails []string
	isProduction  bool
	logger        *slog.Logger
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func NewAuthHandler(cfg *config.Config, users ports.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL:   googleUserInfo,
		users:         users,
		jwtSecret:     cfg.JWTSecret,
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		isProduction:  cfg.AppEnv == "production",
		logger:        logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateStateOauthCookie(w)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed generating oauth state", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback finishes the Google sign-in, provisions the account on first login
// and sets the session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	oauthState, err := r.Cookie(stateCookieName)
	if err != nil || r.FormValue("state") != oauthState.Value {
		h.logger.WarnContext(ctx, "oauth callback with invalid state")
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid oauth state")
		return
	}

	token, err := h.oauthConfig.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		h.logger.WarnContext(ctx, "oauth code exchange failed", slog.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "code exchange failed")
		return
	}

	googleUser, err := h.fetchUser(r, token)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed getting user info", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed getting user info")
		return
	}

	if !h.allowed(googleUser.Email) {
		h.logger.WarnContext(ctx, "email not in allowlist", slog.String("email", googleUser.Email))
		writeError(w, http.StatusForbidden, CodeForbidden, "access denied: your email is not in the allowlist")
		return
	}

	user, err := h.users.EnsureUser(ctx, googleUser.Email, googleUser.Name)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	tokenString, expiresAt, err := NewToken(h.jwtSecret, user.ID, user.Role, sessionTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed signing session token", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    tokenString,
		Expires:  expiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.InfoContext(ctx, "login successful",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.frontendURL+"/login", http.StatusTemporaryRedirect)
}

func (h *AuthHandler) fetchUser(r *http.Request, token *oauth2.Token) (*GoogleUser, error) {
	resp, err := h.oauthConfig.Client(r.Context(), token).Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var u GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if u.Email == "" {
		return nil, fmt.Errorf("userinfo has no email")
	}
	return &u, nil
}

func (h *AuthHandler) allowed(email string) bool {
	if len(h.allowedEmails) == 0 {
		return true
	}
	for _, e := range h.allowedEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}
