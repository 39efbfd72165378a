package server

import (
	"errors"
	"io"
	"strings"

	"bazaar/internal/models"
	"bazaar/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts the "id" route parameter as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parsePage extracts the ?page=N query parameter, defaulting to the first page.
func parsePage(c *fiber.Ctx) int {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	return page
}

// formFile reads an optional multipart file field into a service upload.
// Returns (nil, nil) when the field is absent.
func formFile(c *fiber.Ctx, field string) (*service.FileUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}

	src, err := header.Open()
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}

	return &service.FileUpload{Filename: header.Filename, Content: content}, nil
}

// safeNextPath validates a post-login redirect target. Only local paths are
// allowed so the login flow cannot be used as an open redirect.
func safeNextPath(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}

// formCheckbox interprets a checkbox-style form value.
func formCheckbox(value string) bool {
	switch strings.ToLower(value) {
	case "on", "true", "1", "y", "yes":
		return true
	default:
		return false
	}
}
