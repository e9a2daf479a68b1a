package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"husaride/internal/middleware"
	"husaride/internal/models"
	"husaride/internal/services"
)

// sessions writes and clears the token cookies.
type sessions struct {
	ttl    time.Duration
	secure bool
}

func (s sessions) set(c *gin.Context, name, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, int(s.ttl.Seconds()), "/", "", s.secure, false)
}

func (s sessions) clear(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", s.secure, false)
}

type userSummary struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	Points int         `json:"points"`
}

func summarize(u *models.User) userSummary {
	return userSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Points: u.Points}
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	responder
	accounts  *services.AccountService
	sessions  sessions
	admin     services.ProvisionRequest
	driver    services.ProvisionRequest
	provision bool
}

type AuthOptions struct {
	Production bool
	SessionTTL time.Duration
	// Admin and Driver seed the built-in accounts. Provisioning is disabled
	// in production.
	Admin  services.ProvisionRequest
	Driver services.ProvisionRequest
}

func NewAuthController(accounts *services.AccountService, opts AuthOptions) *AuthController {
	opts.Admin.Role = models.RoleAdmin
	opts.Driver.Role = models.RoleDriver
	return &AuthController{
		responder: responder{production: opts.Production, loginPath: "/"},
		accounts:  accounts,
		sessions:  sessions{ttl: opts.SessionTTL, secure: opts.Production},
		admin:     opts.Admin,
		driver:    opts.Driver,
		provision: !opts.Production,
	}
}

func (a *AuthController) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.badRequest(c, err)
		return
	}
	user, token, err := a.accounts.Register(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	a.sessions.set(c, middleware.PassengerCookie, token)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    summarize(user),
	})
}

// Login signs a user in and sets cookie. A non-nil role limits who may use
// this entry point.
func (a *AuthController) Login(role *models.Role, cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in loginInput
		if err := c.ShouldBindJSON(&in); err != nil {
			a.badRequest(c, err)
			return
		}
		user, token, err := a.accounts.Login(c.Request.Context(), in.Email, in.Password, role)
		if err != nil {
			a.fail(c, err)
			return
		}
		a.sessions.set(c, cookie, token)
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   token,
			"user":    summarize(user),
		})
	}
}

func (a *AuthController) Logout(cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a.sessions.clear(c, cookie)
		c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
	}
}

func (a *AuthController) ForgotPassword(c *gin.Context) {
	var in struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		a.badRequest(c, err)
		return
	}
	if err := a.accounts.ForgotPassword(c.Request.Context(), in.Email); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No account found with this email"})
			return
		}
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset link sent to your email"})
}

func (a *AuthController) CreateAdmin(c *gin.Context) {
	a.provisionAccount(c, a.admin, "Admin account created successfully")
}

func (a *AuthController) CreateDriver(c *gin.Context) {
	a.provisionAccount(c, a.driver, "Driver account created successfully")
}

func (a *AuthController) provisionAccount(c *gin.Context, req services.ProvisionRequest, msg string) {
	if !a.provision {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	user, err := a.accounts.Provision(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "user": summarize(user)})
}

func (a *AuthController) Me(c *gin.Context) {
	user, err := a.accounts.Settings(c.Request.Context(), identity(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": summarize(user)})
}
