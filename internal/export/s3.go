// Package export publishes rendered reports to S3-compatible object storage.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config points the uploader at a bucket. Endpoint and PathStyle are for
// MinIO and other S3-compatible servers.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
	Prefix    string
}

type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Uploader struct {
	client putter
	bucket string
	prefix string
}

// New loads the default AWS credential chain; the region falls back to us-east-1.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newUploader(client, cfg), nil
}

func newUploader(client putter, cfg Config) *Uploader {
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = "circulation-reports"
	}
	return &Uploader{client: client, bucket: cfg.Bucket, prefix: prefix}
}

// Key lays objects out by report date so one day's runs list together.
func (u *Uploader) Key(report string, asOf string, runID uuid.UUID) string {
	return path.Join(u.prefix, asOf, fmt.Sprintf("%s-%s.json", report, runID))
}

// UploadJSON stores payload as indented JSON and returns the object key.
func (u *Uploader) UploadJSON(ctx context.Context, report string, asOf string, runID uuid.UUID, payload any) (string, error) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s report: %w", report, err)
	}
	key := u.Key(report, asOf, runID)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"report": report,
			"as-of":  asOf,
			"run-id": runID.String(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", u.bucket, key, err)
	}
	return key, nil
}
