package s3

import (
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"golang.org/x/net/context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

var ErrUnsafeKey = errors.New("object key escapes the destination directory")

type ItfS3 interface {
	// DownloadPrefix mirrors every object under prefix into destDir and returns
	// the number of files written.
	DownloadPrefix(ctx context.Context, prefix, destDir string) (int, error)
}

type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint targets an S3 compatible store such as MinIO.
	Endpoint string
}

type s3Client struct {
	client     s3iface.S3API
	downloader *s3manager.Downloader
	bucketName string
}

func New(cfg Config) (ItfS3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket name is required")
	}

	sess, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	return NewWithClient(s3.New(sess), cfg.Bucket), nil
}

func NewWithClient(client s3iface.S3API, bucket string) ItfS3 {
	return &s3Client{
		client:     client,
		downloader: s3manager.NewDownloaderWithClient(client),
		bucketName: bucket,
	}
}

func (s *s3Client) DownloadPrefix(ctx context.Context, prefix, destDir string) (int, error) {
	prefix = dirPrefix(prefix)
	var keys []string

	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucketName, prefix, err)
	}

	written := 0
	for _, key := range keys {
		target, err := keyToPath(prefix, key, destDir)
		if err != nil {
			return written, err
		}

		if err := s.downloadFile(ctx, key, target); err != nil {
			return written, err
		}
		written++
	}

	return written, nil
}

func (s *s3Client) downloadFile(ctx context.Context, key, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = s.downloader.DownloadWithContext(ctx, tmp, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to download s3://%s/%s: %w", s.bucketName, key, err)
	}

	return os.Rename(tmp.Name(), target)
}

// dirPrefix treats a non-empty prefix as a folder, so "intent" does not also
// match "intent-v2/...".
func dirPrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

// keyToPath maps an object key below prefix to a path below destDir.
func keyToPath(prefix, key, destDir string) (string, error) {
	rel := strings.TrimPrefix(key, prefix)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = path.Base(key)
	}

	cleaned := path.Clean(rel)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrUnsafeKey, key)
	}

	return filepath.Join(destDir, filepath.FromSlash(cleaned)), nil
}

func newSession(cfg Config) (*session.Session, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)
	}

	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}

	return sess, nil
}
