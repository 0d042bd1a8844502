package output

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ppiankov/calscrape/internal/model"
)

// ObjectPutter is the subset of the S3 client used for publishing
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads category outputs to a bucket
type S3Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Publisher loads the default AWS configuration and creates a publisher
func NewS3Publisher(ctx context.Context, bucket, prefix, region string) (*S3Publisher, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return NewS3PublisherWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3PublisherWithClient creates a publisher around an existing client
func NewS3PublisherWithClient(client ObjectPutter, bucket, prefix string) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key for a category file
func (p *S3Publisher) Key(category model.Category, ext string) string {
	name := string(category) + ext
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Publish uploads the JSON document and, when present, the calendar.
// It returns the uploaded s3:// locations.
func (p *S3Publisher) Publish(ctx context.Context, category model.Category, jsonData, icsData []byte) ([]string, error) {
	var uploaded []string

	key := p.Key(category, ".json")
	if err := p.put(ctx, key, jsonData, "application/json"); err != nil {
		return uploaded, err
	}
	uploaded = append(uploaded, "s3://"+p.bucket+"/"+key)

	if icsData != nil {
		key = p.Key(category, ".ics")
		if err := p.put(ctx, key, icsData, "text/calendar; charset=utf-8"); err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, "s3://"+p.bucket+"/"+key)
	}

	return uploaded, nil
}

func (p *S3Publisher) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=300"),
		Metadata: map[string]string{
			"uploaded-by": "calscrape",
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", p.bucket, key, err)
	}
	return nil
}
