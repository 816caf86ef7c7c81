package vault

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"barangaylink/internal/platform/config"
	dErrors "barangaylink/pkg/domain-errors"
)

// S3 stores attachments in an S3-compatible bucket (AWS or MinIO). Stored
// paths are object keys; downloads go through presigned GETs so the bucket
// stays private.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	urlTTL  time.Duration
}

func NewS3(ctx context.Context, cfg config.VaultConfig) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := cfg.URLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		urlTTL:  ttl,
	}, nil
}

func (v *S3) Store(ctx context.Context, dir string, up Upload) (string, error) {
	key := StoredName(dir, up.Filename)
	_, err := v.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(v.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(up.Data),
		ContentType: aws.String(up.ContentType),
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "store attachment")
	}
	return key, nil
}

func (v *S3) Delete(ctx context.Context, storedPath string) error {
	_, err := v.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(storedPath),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete attachment")
	}
	return nil
}

func (v *S3) URL(ctx context.Context, storedPath string) (string, error) {
	req, err := v.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(storedPath),
	}, s3.WithPresignExpires(v.urlTTL))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "presign attachment url")
	}
	return req.URL, nil
}
