package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// maxDriveFileBytes bounds artwork downloads from Drive
const maxDriveFileBytes = 32 << 20

// DriveService downloads design artwork stored in Google Drive
type DriveService struct {
	client *drive.Service
}

// Ensure DriveService implements DriveServiceInterface
var _ DriveServiceInterface = (*DriveService)(nil)

// NewDriveService creates a new DriveService instance
// credentialsPath should be the path to the Service Account JSON file
func NewDriveService(ctx context.Context, credentialsPath string) (*DriveService, error) {
	driveService, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveService{
		client: driveService,
	}, nil
}

// DownloadFile downloads the content of an image file
func (ds *DriveService) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, fmt.Errorf("drive file id is required")
	}

	meta, err := ds.client.Files.Get(fileID).Fields("id, name, mimeType, size").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get drive file %s: %w", fileID, err)
	}
	if !strings.HasPrefix(strings.ToLower(meta.MimeType), "image/") {
		return nil, fmt.Errorf("drive file %s is not an image (mimeType=%s)", fileID, meta.MimeType)
	}
	if meta.Size > maxDriveFileBytes {
		return nil, fmt.Errorf("drive file %s is too large (%d bytes)", fileID, meta.Size)
	}

	resp, err := ds.client.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download drive file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDriveFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read drive file %s: %w", fileID, err)
	}
	if len(data) > maxDriveFileBytes {
		return nil, fmt.Errorf("drive file %s is too large", fileID)
	}
	return data, nil
}
