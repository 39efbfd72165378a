// Package service implements the application flows on top of the
// repositories and the image store.
package service

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"bazaar/internal/models"
	"bazaar/internal/observability"

	xdraw "golang.org/x/image/draw"
)

const (
	// ThumbnailBound is the maximum pixel dimension of a stored image.
	// Uploads are downscaled so neither side exceeds it; smaller images
	// are stored as-is.
	ThumbnailBound = 125

	// filenameRandomBytes is the entropy behind generated filenames. Eight
	// bytes keeps concurrent uploads collision-free without coordination.
	filenameRandomBytes = 8

	jpegQuality = 85
)

// storedNameRegex matches filenames this service generates. Remove refuses
// anything else, which keeps callers from deleting arbitrary paths.
var storedNameRegex = regexp.MustCompile(`^[0-9a-f]{16}\.(jpg|png)$`)

// FileUpload carries a raw uploaded file through the service layer.
type FileUpload struct {
	Filename string
	Content  []byte
}

// ImageService stores uploaded images as bounded thumbnails under
// per-purpose directories (profile pictures, listing photos).
type ImageService struct{}

// NewImageService returns a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// Ingest decodes the upload, downscales it to the thumbnail bound,
// and writes it to destDir under a random filename that preserves the
// original extension. The stored filename is returned for persistence in
// the owning record.
func (s *ImageService) Ingest(content []byte, originalFilename, destDir string) (string, error) {
	start := time.Now()

	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext != ".jpg" && ext != ".png" {
		return "", models.NewValidationError("Image must be a .jpg or .png file")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	thumb := resizeToFit(decoded, ThumbnailBound, ThumbnailBound)

	var buf bytes.Buffer
	switch ext {
	case ".png":
		err = png.Encode(&buf, thumb)
	default:
		err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return "", models.NewInternalError(err)
	}

	name, err := randomFilename(ext)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := os.WriteFile(filepath.Join(destDir, name), buf.Bytes(), 0o600); err != nil {
		return "", models.NewInternalError(err)
	}

	observability.ObserveImageIngest(start)
	return name, nil
}

// Remove deletes a previously stored image file. Only filenames generated
// by Ingest are accepted; the default avatar and anything else are ignored.
// A missing file is not an error.
func (s *ImageService) Remove(dir, name string) error {
	if !storedNameRegex.MatchString(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return models.NewInternalError(err)
	}
	return nil
}

// resizeToFit downscales src so that neither dimension exceeds the given
// bounds, preserving aspect ratio. Images already inside the bounds are
// returned unchanged; this is a thumbnail bound, not a crop, and never
// upscales.
func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func randomFilename(ext string) (string, error) {
	raw := make([]byte, filenameRandomBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw) + ext, nil
}
