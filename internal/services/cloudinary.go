package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/pulsechat/pulse-backend/internal/apperr"
)

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryService{cld: cld}, nil
}

// UploadBase64 uploads a base64 data URI (as sent by browser FileReader) and
// returns the hosted secure URL. Cloudinary accepts the data URI directly.
func (s *CloudinaryService) UploadBase64(ctx context.Context, data, folder string) (string, error) {
	if !strings.HasPrefix(data, "data:") {
		return "", apperr.Validation("image must be a base64 data URI")
	}

	result, err := s.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", apperr.Unavailable("image upload failed", err)
	}

	return result.SecureURL, nil
}
