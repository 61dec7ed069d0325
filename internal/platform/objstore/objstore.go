// Package objstore uploads generated artifacts to S3-compatible object
// storage and hands back shareable download links.
package objstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/medfellows/quizforge-api/internal/config"
)

// downloadLinkTTL is the lifetime of presigned download links. Seven days
// is the longest expiry S3-style presigning allows.
const downloadLinkTTL = 7 * 24 * time.Hour

// objectAPI is the subset of the minio client the uploader needs.
type objectAPI interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Uploader puts files into a configured bucket under a folder prefix.
type Uploader struct {
	client objectAPI
	logger *slog.Logger
	bucket string
	folder string
}

// NewUploader connects to the configured object storage endpoint and
// returns an Uploader scoped to its bucket and folder.
func NewUploader(cfg config.StorageConfig, logger *slog.Logger) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &Uploader{
		client: client,
		logger: logger,
		bucket: cfg.Bucket,
		folder: cfg.Folder,
	}, nil
}

// Upload stores the file at filePath under the uploader's folder as
// objectName and returns a presigned download URL for it.
func (u *Uploader) Upload(ctx context.Context, filePath, objectName string) (string, error) {
	key := objectName
	if u.folder != "" {
		key = path.Join(u.folder, objectName)
	}

	info, err := u.client.FPutObject(ctx, u.bucket, key, filePath, minio.PutObjectOptions{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}

	u.logger.InfoContext(ctx, "artifact uploaded",
		"bucket", u.bucket,
		"object", key,
		"size_bytes", info.Size)

	link, err := u.client.PresignedGetObject(ctx, u.bucket, key, downloadLinkTTL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign download link for %s: %w", objectName, err)
	}
	return link.String(), nil
}
