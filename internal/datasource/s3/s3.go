// Package s3 implements an S3-backed data source using the AWS SDK.
//
// Credentials come from the pipeline config as an explicit struct; they
// are never injected into the process environment.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Config holds the connection parameters for one bucket.
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Source reads JSON objects from an S3 bucket. Keys are object keys.
type Source struct {
	client     *s3.S3
	downloader *s3manager.Downloader
	bucket     string
}

// New constructs a Source. Static credentials are used when provided;
// otherwise the SDK's default chain applies (instance profiles etc.).
func New(cfg Config) (*Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 source: bucket is required")
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 source: session: %w", err)
	}
	return &Source{
		client:     s3.New(sess),
		downloader: s3manager.NewDownloader(sess),
		bucket:     cfg.Bucket,
	}, nil
}

// List pages through the bucket and returns every .json key under
// prefix, sorted.
func (s *Source) List(ctx context.Context, prefix string) ([]string, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var keys []string
	err := s.client.ListObjectsPagesWithContext(ctx,
		&s3.ListObjectsInput{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		},
		func(page *s3.ListObjectsOutput, lastPage bool) bool {
			for _, obj := range page.Contents {
				if path.Ext(aws.StringValue(obj.Key)) == ".json" {
					keys = append(keys, aws.StringValue(obj.Key))
				}
			}
			return !lastPage
		})
	if err != nil {
		return nil, fmt.Errorf("s3 list %s/%s: %w", s.bucket, prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Open downloads one object fully and returns it as a reader. Input
// files are small (one catalog record or one day of log lines), so
// buffering whole objects keeps the downloader free to use ranged
// parallel GETs.
func (s *Source) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	buf := &aws.WriteAtBuffer{}
	_, err := s.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s/%s: %w", s.bucket, key, err)
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}
