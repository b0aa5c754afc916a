package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yukikurage/qa-tracker-api/internal/config"
)

// FileStorage persists screenshot bytes. Paths returned by Save are the
// values stored in the screenshot row and passed back to Remove.
type FileStorage interface {
	Save(ctx context.Context, r io.Reader, ext string) (string, error)
	Remove(ctx context.Context, path string) error
	URL(path string) string
}

// New builds the backend selected in cfg.
func New(cfg config.UploadConfig) (FileStorage, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStorage(cfg.Path, "/uploads/"), nil
	case "cloudinary":
		return NewCloudinaryStorage(cfg)
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.Backend)
	}
}

var allowedImageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// MimeTypeForExt returns the image MIME type for an allowed extension.
func MimeTypeForExt(ext string) (string, bool) {
	mime, ok := allowedImageTypes[strings.ToLower(ext)]
	return mime, ok
}

// SniffMatches reports whether the leading bytes of a file are the image
// type implied by ext.
func SniffMatches(head []byte, ext string) bool {
	want, ok := MimeTypeForExt(ext)
	if !ok {
		return false
	}
	return http.DetectContentType(head) == want
}
