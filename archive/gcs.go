// Package archive keeps the original receipt photos in Cloud Storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSArchiver uploads receipt images to a bucket.
type GCSArchiver struct {
	client *storage.Client
	bucket string
	prefix string
	now    func() time.Time
}

// NewGCSArchiver connects to Cloud Storage using Application Default
// Credentials unless opts say otherwise.
func NewGCSArchiver(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSArchiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSArchiver{client: client, bucket: bucket, prefix: "receipts", now: time.Now}, nil
}

// ObjectName builds receipts/YYYY/MM/<uuid><ext> for an upload at t.
func ObjectName(prefix string, t time.Time, mimeType string) string {
	return path.Join(prefix, t.Format("2006"), t.Format("01"), uuid.NewString()+extension(mimeType))
}

func extension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	case "application/pdf":
		return ".pdf"
	default:
		return ".jpg"
	}
}

// Store uploads image and returns its gs:// URI.
func (a *GCSArchiver) Store(ctx context.Context, image []byte, mimeType string) (string, error) {
	name := ObjectName(a.prefix, a.now(), mimeType)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := io.Copy(w, bytes.NewReader(image)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy image to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return "gs://" + a.bucket + "/" + name, nil
}

func (a *GCSArchiver) Close() error {
	return a.client.Close()
}
