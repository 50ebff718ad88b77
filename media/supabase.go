package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"
)

type supabaseHost struct {
	client *supa.Client
	bucket string
	logger *logrus.Entry
}

// NewSupabase stores uploads in a public Supabase Storage bucket.
func NewSupabase(supabaseURL, serviceKey, bucket string, logger *logrus.Logger) (Host, error) {
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize supabase client: %w", err)
	}

	return &supabaseHost{
		client: client,
		bucket: bucket,
		logger: logger.WithField("component", "media.supabase"),
	}, nil
}

func (h *supabaseHost) Upload(ctx context.Context, file File) (string, error) {
	if file.Body == nil {
		return "", ErrEmptyUpload
	}

	objectPath := path.Join(ResourceType(file.ContentType), uuid.NewString()+strings.ToLower(path.Ext(file.Filename)))
	contentType := file.ContentType
	upsert := false

	_, err := h.client.Storage.UploadFile(h.bucket, objectPath, file.Body, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		h.logger.WithError(err).WithField("path", objectPath).Error("Media upload failed")
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	url := h.client.Storage.GetPublicUrl(h.bucket, objectPath).SignedURL
	h.logger.WithField("secure_url", url).Info("Media upload finished")
	return url, nil
}
