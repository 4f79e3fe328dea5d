// Package assets moves cover images into object storage on a strictly
// best-effort basis: a failed transfer degrades to the original external
// URL and never blocks ingestion.
package assets

import (
	"context"
	"io"
)

// ObjectStore is the storage collaborator for cover images.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// extensionByContentType maps declared content types to storage key
// extensions. Anything unrecognized falls back to jpg.
var extensionByContentType = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

func extensionFor(contentType string) string {
	if ext, ok := extensionByContentType[contentType]; ok {
		return ext
	}
	return "jpg"
}
