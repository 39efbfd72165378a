package server

import (
	"fmt"

	"bazaar/internal/models"
	"bazaar/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Feed handles GET / and GET /home: the paginated, time-ordered feed.
func (s *Server) Feed(c *fiber.Ctx) error {
	page, err := s.listingService.Feed(c.UserContext(), parsePage(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(page)
}

// UserListings handles GET /user/:username: the feed filtered to one author.
func (s *Server) UserListings(c *fiber.Ctx) error {
	user, page, err := s.listingService.ByUser(c.UserContext(), c.Params("username"), parsePage(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{
		"user":     user,
		"listings": page,
	})
}

// NewListingPage handles GET /post/new.
func (s *Server) NewListingPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"title": "New Listing"})
}

// CreateListing handles POST /post/new
func (s *Server) CreateListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	image, err := formFile(c, "image")
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	_, err = s.listingService.Create(c.UserContext(), service.CreateListingInput{
		UserID:  userID,
		Title:   c.FormValue("title"),
		Content: c.FormValue("content"),
		Price:   c.FormValue("price"),
		Contact: c.FormValue("contact"),
		Image:   image,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Redirect("/home", fiber.StatusSeeOther)
}

// GetListing handles GET /post/:id
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	listing, err := s.listingService.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(listing)
}

// UpdateListingPage handles GET /post/:id/update: the edit form prefill.
// Ownership is checked here too so a non-owner never sees the form.
func (s *Server) UpdateListingPage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	listing, err := s.listingService.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	if listing.UserID != userID {
		forbidden := models.NewForbiddenError("You can only update your own listings")
		return models.RespondWithError(c, fiber.StatusForbidden, forbidden)
	}
	return c.JSON(listing)
}

// UpdateListing handles POST /post/:id/update
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	image, err := formFile(c, "image")
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	listing, err := s.listingService.Update(c.UserContext(), userID, id, service.UpdateListingInput{
		Title:   c.FormValue("title"),
		Content: c.FormValue("content"),
		Price:   c.FormValue("price"),
		Contact: c.FormValue("contact"),
		Image:   image,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Redirect(fmt.Sprintf("/post/%d", listing.ID), fiber.StatusSeeOther)
}

// DeleteListing handles POST /post/:id/delete
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	if err := s.listingService.Delete(c.UserContext(), userID, id); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Redirect("/home", fiber.StatusSeeOther)
}
