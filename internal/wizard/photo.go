package wizard

import (
	"io"
	"net/http"
	"strings"
)

// Image is a photo picked on the photo screen.
type Image struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DetectContentType keeps a declared image type and sniffs head otherwise.
func DetectContentType(declared string, head []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.EqualFold(declared, "application/octet-stream") {
		return declared
	}
	return http.DetectContentType(head)
}

// checkImage runs before any upload is attempted.
func checkImage(img Image, maxBytes int64) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(img.ContentType)), "image/") {
		return ErrNotAnImage
	}
	if img.Size > maxBytes {
		return ErrImageTooLarge
	}
	if img.Size <= 0 || img.Body == nil {
		return ErrInvalidInput
	}
	return nil
}
