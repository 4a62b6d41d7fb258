package export

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type capturePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (c *capturePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	c.body = body
	if c.err != nil {
		return nil, c.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestUploadJSON(t *testing.T) {
	client := &capturePutter{}
	uploader := newUploader(client, Config{Bucket: "reports", Prefix: "/library/"})
	runID := uuid.MustParse("6f1c2a0e-7d7b-4d0a-9a57-2f4f0c1b9e11")

	key, err := uploader.UploadJSON(context.Background(), "dashboard", "2026-03-15", runID, map[string]int{"total_books": 6})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if key != "library/2026-03-15/dashboard-6f1c2a0e-7d7b-4d0a-9a57-2f4f0c1b9e11.json" {
		t.Fatalf("unexpected key %s", key)
	}
	if aws.ToString(client.input.Bucket) != "reports" || aws.ToString(client.input.ContentType) != "application/json" {
		t.Fatalf("unexpected put input %+v", client.input)
	}
	if client.input.Metadata["run-id"] != runID.String() {
		t.Fatalf("expected run id metadata, got %v", client.input.Metadata)
	}
	var decoded map[string]int
	if err := json.Unmarshal(client.body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded["total_books"] != 6 {
		t.Fatalf("expected total_books 6, got %v", decoded)
	}
}

func TestUploadJSONDefaultPrefixAndError(t *testing.T) {
	client := &capturePutter{err: errors.New("access denied")}
	uploader := newUploader(client, Config{Bucket: "reports"})

	_, err := uploader.UploadJSON(context.Background(), "trend", "2026-03-15", uuid.New(), []string{})
	if err == nil || !strings.Contains(err.Error(), "s3://reports/circulation-reports/2026-03-15/trend-") {
		t.Fatalf("expected wrapped upload error, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}
