package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/ASHISH26940/vidface-api/pkg/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

const presignExpiry = time.Hour

// ErrObjectMissing is returned when the bucket holds no copy of an artifact,
// for example because its upload failed.
var ErrObjectMissing = errors.New("object not found in bucket")

// ObjectMirror copies completed artifacts to an S3-compatible bucket.
type ObjectMirror struct {
	client *minio.Client
	bucket string
}

// NewObjectMirror connects to the configured endpoint and creates the bucket
// when it does not exist.
func NewObjectMirror(ctx context.Context, cfg *config.Config) (*ObjectMirror, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connection: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.S3Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{Region: cfg.S3Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.S3Bucket, err)
		}
		log.Infof("Created bucket %s", cfg.S3Bucket)
	}
	return &ObjectMirror{client: client, bucket: cfg.S3Bucket}, nil
}

// ObjectKey is the bucket key of a video artifact with extension ext.
func ObjectKey(videoID uuid.UUID, ext string) string {
	if ext == "" {
		ext = ".mp4"
	}
	return "videos/" + videoID.String() + ext
}

// ContentType maps an artifact extension to its MIME type.
func ContentType(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp4":
		return "video/mp4"
	case "mov":
		return "video/quicktime"
	case "webm":
		return "video/webm"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

func (m *ObjectMirror) Upload(ctx context.Context, path string, videoID uuid.UUID) error {
	ext := filepath.Ext(path)
	_, err := m.client.FPutObject(ctx, m.bucket, ObjectKey(videoID, ext), path, minio.PutObjectOptions{
		ContentType: ContentType(ext),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

// PresignedURL returns a one hour GET link for the artifact. Presigning does
// not touch the bucket, so the object is checked first.
func (m *ObjectMirror) PresignedURL(ctx context.Context, videoID uuid.UUID, ext string) (string, error) {
	key := ObjectKey(videoID, ext)
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", fmt.Errorf("%s: %w", key, ErrObjectMissing)
		}
		return "", fmt.Errorf("stat %s: %w", key, err)
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", videoID.String()+ext))
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, presignExpiry, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", videoID, err)
	}
	return u.String(), nil
}

func (m *ObjectMirror) Remove(ctx context.Context, videoID uuid.UUID, ext string) error {
	return m.client.RemoveObject(ctx, m.bucket, ObjectKey(videoID, ext), minio.RemoveObjectOptions{})
}
