package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/middleware"
	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.Session, error)
	Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*models.Session, error)
	Logout(ctx context.Context, refreshToken string, userID int64) error
	Me(ctx context.Context, userID int64) (*models.UserInfo, error)
}

// CookieOptions shape the auth cookies.
type CookieOptions struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite maps "strict", "none" or "lax" onto http.SameSite.
func ParseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookies CookieOptions
	now     func() time.Time
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookies CookieOptions) *AuthHandler {
	if cookies.SameSite == 0 {
		cookies.SameSite = http.SameSiteLaxMode
	}
	return &AuthHandler{service: svc, cookies: cookies, now: time.Now}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by email and password. Tokens are set as cookies.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	session, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSession(c, session)
	response.JSON(c, http.StatusOK, session, nil)
}

// Refresh godoc
// @Summary Refresh session
// @Description Rotate the refresh cookie into a new session
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(middleware.RefreshCookie)
	if err != nil || token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token missing"))
		return
	}

	session, err := h.service.Refresh(c.Request.Context(), token, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		h.clearSession(c)
		response.Error(c, err)
		return
	}
	h.setSession(c, session)
	response.JSON(c, http.StatusOK, session, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the refresh token and clear auth cookies
// @Tags Authentication
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var userID int64
	if claims := claimsFromContext(c); claims != nil {
		userID = claims.UserID
	}
	token, _ := c.Cookie(middleware.RefreshCookie)
	if err := h.service.Logout(c.Request.Context(), token, userID); err != nil {
		response.Error(c, err)
		return
	}
	h.clearSession(c)
	response.NoContent(c)
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	info, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

func (h *AuthHandler) setSession(c *gin.Context, session *models.Session) {
	now := h.now()
	h.setCookie(c, middleware.AccessCookie, session.AccessToken, session.AccessExpiresAt.Sub(now), true)
	h.setCookie(c, middleware.RefreshCookie, session.RefreshToken, session.RefreshExpiresAt.Sub(now), true)
	h.setCookie(c, middleware.CSRFCookie, session.CSRFToken, session.RefreshExpiresAt.Sub(now), false)
}

func (h *AuthHandler) clearSession(c *gin.Context) {
	for _, name := range []string{middleware.AccessCookie, middleware.RefreshCookie} {
		h.setCookie(c, name, "", -1, true)
	}
	h.setCookie(c, middleware.CSRFCookie, "", -1, false)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, ttl time.Duration, httpOnly bool) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl.Seconds())
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookies.Secure,
		HttpOnly: httpOnly,
		SameSite: h.cookies.SameSite,
	})
}
