package server

import (
	"time"

	"bazaar/internal/models"
	"bazaar/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterPage handles GET /register. Authenticated users are sent home.
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	if _, ok := s.currentUserID(c); ok {
		return c.Redirect("/home", fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{"title": "Register"})
}

// Register handles POST /register
func (s *Server) Register(c *fiber.Ctx) error {
	if _, ok := s.currentUserID(c); ok {
		return c.Redirect("/home", fiber.StatusSeeOther)
	}

	_, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	// Account created; the caller logs in next.
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// LoginPage handles GET /login. Authenticated users are sent home.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if _, ok := s.currentUserID(c); ok {
		return c.Redirect("/home", fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{"title": "Login"})
}

// Login handles POST /login
func (s *Server) Login(c *fiber.Ctx) error {
	if _, ok := s.currentUserID(c); ok {
		return c.Redirect("/home", fiber.StatusSeeOther)
	}

	user, err := s.authService.Authenticate(c.UserContext(),
		c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	remember := formCheckbox(c.FormValue("remember"))
	token, expiry, err := s.generateToken(user.ID, remember)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Expires:  expiry,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})

	// Resume the originally requested page when login was forced by a
	// protected route.
	next := safeNextPath(c.Query("next"))
	if next == "" {
		next = safeNextPath(c.FormValue("next"))
	}
	if next == "" {
		next = "/home"
	}
	return c.Redirect(next, fiber.StatusSeeOther)
}

// Logout handles GET /logout. It always succeeds: the cookie is cleared and,
// when Redis is available, the token is blacklisted until its natural expiry.
func (s *Server) Logout(c *fiber.Ctx) error {
	if tokenString := sessionToken(c); tokenString != "" && s.redis != nil {
		if claims, ok := s.parseSessionClaims(c, tokenString); ok {
			jti, _ := claims["jti"].(string)
			if exp, expErr := claims.GetExpirationTime(); jti != "" && expErr == nil && exp != nil {
				ttl := time.Until(exp.Time)
				if ttl > 0 {
					s.redis.Set(c.Context(), "session_blacklist:"+jti, "1", ttl)
				}
			}
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})

	return c.Redirect("/home", fiber.StatusSeeOther)
}
