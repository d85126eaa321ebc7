package integration

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/SwetabhSingh17/APMS-sub001/pkg/hash"
)

// ExportArchive keeps a copy of every admin export.
type ExportArchive interface {
	Store(ctx context.Context, at time.Time, ext, contentType string, data []byte) (string, error)
}

// ExportKey lays exports out by month: exports/2024/09/20240915T101500Z.json.
func ExportKey(at time.Time, ext string) string {
	at = at.UTC()
	return fmt.Sprintf("exports/%04d/%02d/%s.%s", at.Year(), int(at.Month()), at.Format("20060102T150405Z"), ext)
}

type minioArchive struct {
	client *minio.Client
	bucket string
	region string
	hasher *hash.Hasher
	logger zerolog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

// NewMinIOArchive creates the client without contacting the server; the bucket is created on first use.
func NewMinIOArchive(endpoint, accessKey, secretKey, bucket, region string, useSSL bool, logger zerolog.Logger) (ExportArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.Info().
		Str("endpoint", endpoint).
		Str("bucket", bucket).
		Bool("ssl", useSSL).
		Msg("MinIO export archive configured")

	return &minioArchive{
		client: client,
		bucket: bucket,
		region: region,
		hasher: hash.New(hash.SHA256),
		logger: logger,
	}, nil
}

func (a *minioArchive) ensureBucket(ctx context.Context) error {
	a.ensureMu.Lock()
	defer a.ensureMu.Unlock()
	if a.bucketEnsured {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		a.logger.Info().Str("bucket", a.bucket).Msg("Created new bucket")
	}

	a.bucketEnsured = true
	return nil
}

func (a *minioArchive) Store(ctx context.Context, at time.Time, ext, contentType string, data []byte) (string, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return "", err
	}

	checksum, err := a.hasher.Calculate(data)
	if err != nil {
		return "", err
	}

	key := ExportKey(at, ext)
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"Checksum-" + string(a.hasher.Algorithm()): checksum},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	a.logger.Debug().
		Str("bucket", a.bucket).
		Str("key", key).
		Str("etag", info.ETag).
		Str("checksum", checksum).
		Int("size", len(data)).
		Msg("Export archived")

	return key, nil
}
