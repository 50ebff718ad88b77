// Package media uploads user files to a hosted media service and returns a
// public https URL for them.
package media

import (
	"context"
	"errors"
	"io"
	"strings"
)

const (
	ResourceImage = "image"
	ResourceVideo = "video"

	// UploadTag marks every file this service uploads.
	UploadTag = "alightgram_upload"
)

var ErrEmptyUpload = errors.New("upload has no content")

// File is one upload. ContentType is the client-declared MIME type.
type File struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Host interface {
	// Upload stores the file and returns its secure URL.
	Upload(ctx context.Context, file File) (string, error)
}

// ResourceType maps a MIME type onto the host's resource class. Anything
// that is not an image is treated as video.
func ResourceType(contentType string) string {
	if strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return ResourceImage
	}
	return ResourceVideo
}

// IsCanonical reports whether url is served by the canonical media host.
func IsCanonical(url, canonicalHost string) bool {
	return canonicalHost != "" && strings.Contains(strings.ToLower(url), strings.ToLower(canonicalHost))
}
