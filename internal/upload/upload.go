// Package upload stores admin-provided event images on local disk. Files are
// accepted only when both the declared content type and the sniffed content
// agree on a supported image format.
package upload

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const MaxImageBytes = 5 << 20

var (
	ErrNotImage = errors.New("file content does not match a valid image format")
	ErrTooLarge = errors.New("image exceeds the maximum allowed size")
)

// allowedTypes maps the accepted MIME types to a canonical extension.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var allowedExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

type Saver struct {
	Dir string
}

func NewSaver(dir string) *Saver {
	return &Saver{Dir: dir}
}

// SaveImage validates and writes the image, returning the public path and the
// generated filename.
func (s *Saver) SaveImage(originalName, declaredType string, data []byte) (string, string, error) {
	if int64(len(data)) > MaxImageBytes {
		return "", "", ErrTooLarge
	}

	canonicalExt, ok := allowedTypes[strings.ToLower(declaredType)]
	if !ok {
		return "", "", ErrNotImage
	}

	detected := mimetype.Detect(data)
	if _, ok := allowedTypes[detected.String()]; !ok {
		return "", "", ErrNotImage
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExts[ext] {
		ext = canonicalExt
	}

	var random [4]byte
	if _, err := rand.Read(random[:]); err != nil {
		return "", "", fmt.Errorf("failed to generate filename: %w", err)
	}
	filename := fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), hex.EncodeToString(random[:]), ext)

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, filename), data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write image: %w", err)
	}

	return "/events/" + filename, filename, nil
}
