package server

import (
	"bazaar/internal/models"
	"bazaar/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetAccount handles GET /account: the authenticated user's own profile.
func (s *Server) GetAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.accountService.Get(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{
		"user":       user,
		"avatar_url": "/media/profile/" + user.Avatar,
	})
}

// UpdateAccount handles POST /account: username/email changes plus an
// optional profile picture replacement.
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	picture, err := formFile(c, "picture")
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	_, err = s.accountService.Update(c.UserContext(), service.AccountUpdateInput{
		UserID:   userID,
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Picture:  picture,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Redirect("/account", fiber.StatusSeeOther)
}
