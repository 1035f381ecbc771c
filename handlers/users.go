package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamkb/teamkb/internal/sessions"
	"github.com/teamkb/teamkb/internal/tokens"
	"github.com/teamkb/teamkb/internal/users"
	"github.com/teamkb/teamkb/pkg/logger"
	"github.com/teamkb/teamkb/pkg/middleware"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,notblank"`
	Name     string `json:"name" binding:"required,notblank"`
	Password string `json:"password" binding:"required,notblank"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,notblank"`
	Password string `json:"password" binding:"required"`
}

// UserHandler serves registration, login and the caller's profile.
type UserHandler struct {
	users        *users.Service
	issuer       *tokens.Issuer
	blacklist    *sessions.Blacklist
	secureCookie bool
}

func NewUserHandler(u *users.Service, issuer *tokens.Issuer, bl *sessions.Blacklist, secureCookie bool) *UserHandler {
	registerValidators()
	return &UserHandler{users: u, issuer: issuer, blacklist: bl, secureCookie: secureCookie}
}

// Register routes under /user. Logout and profile go on the authenticated group.
func (h *UserHandler) Register(public, protected *gin.RouterGroup) {
	g := public.Group("/user")
	g.POST("/register", h.RegisterUser)
	g.POST("/login", h.Login)

	p := protected.Group("/user")
	p.POST("/logout", h.Logout)
	p.GET("/profile", h.Profile)
}

func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "user", u)
}

// Login sets the token cookie and also returns the token for API clients.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := h.issuer.GenerateAccessToken(u)
	if err != nil {
		writeError(c, err)
		return
	}
	h.setTokenCookie(c, token, int(h.issuer.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u, "token": token})
}

// Logout revokes the current token for the rest of its lifetime and clears
// the cookie.
func (h *UserHandler) Logout(c *gin.Context) {
	raw := middleware.RawToken(c)
	ttl := h.issuer.Remaining(middleware.ClaimsFrom(c))
	if err := h.blacklist.Revoke(c.Request.Context(), raw, ttl); err != nil {
		logger.Errorf("logout: failed to revoke token: %v", err)
		writeError(c, err)
		return
	}
	h.setTokenCookie(c, "", -1)
	respond(c, http.StatusOK, "message", "Logged out successfully")
}

func (h *UserHandler) Profile(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	u, err := h.users.Get(c.Request.Context(), id.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "user", u)
}

func (h *UserHandler) setTokenCookie(c *gin.Context, value string, maxAge int) {
	if h.secureCookie {
		c.SetSameSite(http.SameSiteStrictMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(middleware.TokenCookie, value, maxAge, "/", "", h.secureCookie, true)
}
