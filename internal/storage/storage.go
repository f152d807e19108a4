// Package storage uploads post attachments to a blob store and returns
// the public URL they can be fetched from.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"noticeboard/internal/config"

	"github.com/google/uuid"
)

// BlobStore stores an object and returns its public URL. Implementations
// create the bucket on first use when it does not exist.
type BlobStore interface {
	PutObject(ctx context.Context, bucket, object string, body []byte, contentType string) (string, error)
}

// New returns the blob store selected by BLOB_DRIVER.
func New(cfg *config.Config) (BlobStore, error) {
	switch cfg.BlobDriver {
	case "memory":
		return NewMemoryStore(cfg.BlobPublicURL), nil
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}

// ObjectName derives a collision-free object name from an uploaded file name:
// "<uuid>-<sanitized base name>".
func ObjectName(filename string) string {
	return uuid.NewString() + "-" + sanitizeFilename(filename)
}

func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), ".")
	if name == "" {
		return "file"
	}
	return name
}

func publicURL(base, bucket, object string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + object
}
