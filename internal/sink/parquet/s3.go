package parquet

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/xitongsys/parquet-go/source"
)

// S3Config holds the destination bucket parameters.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// s3Dest stages each partition file in a local temp directory and
// uploads it, which keeps the parquet footer write local and the S3
// write a single atomic PUT.
type s3Dest struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
	tempDir  string
}

// NewS3 returns a Writer that writes below cfg.Prefix in cfg.Bucket.
func NewS3(cfg S3Config, parallel int64) (*Writer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 sink: bucket is required")
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 sink: session: %w", err)
	}
	tempDir, err := os.MkdirTemp("", "songlake-parquet-")
	if err != nil {
		return nil, fmt.Errorf("s3 sink: temp dir: %w", err)
	}
	if parallel <= 0 {
		parallel = 2
	}
	return &Writer{
		dest: &s3Dest{
			client:   s3.New(sess),
			uploader: s3manager.NewUploader(sess),
			bucket:   cfg.Bucket,
			prefix:   cfg.Prefix,
			tempDir:  tempDir,
		},
		parallel: parallel,
	}, nil
}

func (d *s3Dest) key(relPath string) string {
	return path.Join(d.prefix, relPath)
}

// reset deletes every object under the table's prefix, in pages of at
// most 1000 keys (the DeleteObjects limit).
func (d *s3Dest) reset(ctx context.Context, table string) error {
	prefix := d.key(table) + "/"

	var keys []*s3.ObjectIdentifier
	err := d.client.ListObjectsPagesWithContext(ctx,
		&s3.ListObjectsInput{
			Bucket: aws.String(d.bucket),
			Prefix: aws.String(prefix),
		},
		func(page *s3.ListObjectsOutput, lastPage bool) bool {
			for _, obj := range page.Contents {
				keys = append(keys, &s3.ObjectIdentifier{Key: obj.Key})
			}
			return !lastPage
		})
	if err != nil {
		return fmt.Errorf("list %s: %w", prefix, err)
	}

	for len(keys) > 0 {
		n := len(keys)
		if n > 1000 {
			n = 1000
		}
		_, err := d.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(d.bucket),
			Delete: &s3.Delete{Objects: keys[:n], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete under %s: %w", prefix, err)
		}
		keys = keys[n:]
	}
	return nil
}

func (d *s3Dest) put(ctx context.Context, relPath string, write func(source.ParquetFile) error) error {
	tmp := filepath.Join(d.tempDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(tmp), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(tmp), err)
	}
	if err := writeLocalFile(tmp, write); err != nil {
		return err
	}
	defer os.Remove(tmp)

	f, err := os.Open(tmp)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	_, err = d.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(relPath)),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", d.key(relPath), err)
	}
	return nil
}
