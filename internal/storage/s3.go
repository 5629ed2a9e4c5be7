// Package storage publishes generated personas to S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

const contentType = "text/plain; charset=utf-8"

// Publisher stores a rendered persona and returns where it lives.
type Publisher interface {
	Publish(ctx context.Context, runID, username string, body []byte) (key, url string, err error)
}

// ObjectPutter is the subset of *s3.Client used here.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Publisher struct {
	client  ObjectPutter
	bucket  string
	baseURL string // e.g. "https://personas.apresai.dev"
}

func NewS3Publisher(client ObjectPutter, bucket, baseURL string) *S3Publisher {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3Publisher{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewS3 loads the default AWS config for region and builds an
// instrumented publisher.
func NewS3(ctx context.Context, region, bucket, baseURL string) (*S3Publisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions)
	return NewS3Publisher(s3.NewFromConfig(cfg), bucket, baseURL), nil
}

// Key is the object key for one run's persona.
func Key(runID, username string) string {
	return path.Join("personas", runID, username+"_persona.txt")
}

// Publish uploads body and returns the S3 key and public URL.
func (s *S3Publisher) Publish(ctx context.Context, runID, username string, body []byte) (key, url string, err error) {
	key = Key(runID, username)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", "", fmt.Errorf("upload to s3: %w", err)
	}
	return key, s.baseURL + "/" + key, nil
}
