package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/yukikurage/qa-tracker-api/internal/config"
)

const cloudinaryFolder = "qa_tracker/screenshots"

// CloudinaryStorage keeps screenshots in Cloudinary. Stored paths are public IDs.
type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStorage(cfg config.UploadConfig) (*CloudinaryStorage, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("cloudinary configuration is missing")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.CloudinaryCloudName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryStorage{cld: cld}, nil
}

func (s *CloudinaryStorage) Save(ctx context.Context, r io.Reader, _ string) (string, error) {
	overwrite := false
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     uuid.New().String(),
		Folder:       cloudinaryFolder,
		Overwrite:    &overwrite,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload screenshot: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload screenshot: %s", result.Error.Message)
	}
	return result.PublicID, nil
}

func (s *CloudinaryStorage) Remove(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func (s *CloudinaryStorage) URL(publicID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s",
		s.cld.Config.Cloud.CloudName,
		publicID,
	)
}
