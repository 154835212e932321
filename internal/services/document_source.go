package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// ErrS3NotConfigured is returned for s3:// locations when no client was configured.
var ErrS3NotConfigured = errors.New("s3 document source is not configured")

// DocumentSource resolves document locations and reads their bytes.
type DocumentSource interface {
	// Expand turns a file, directory or s3 prefix into individual document URIs.
	Expand(ctx context.Context, location string) ([]string, error)
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

type documentSource struct {
	s3Client *s3.Client
	retry    RetryPolicy
}

// NewDocumentSource reads local paths, and s3:// URIs when s3Client is not nil.
func NewDocumentSource(s3Client *s3.Client, policy RetryPolicy) DocumentSource {
	return &documentSource{s3Client: s3Client, retry: policy}
}

// S3Options configures NewS3Client. Empty keys fall back to the default AWS credential chain.
type S3Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, s3Scheme) {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, _ = strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", uri)
	}
	return bucket, key, nil
}

// DocumentName is the display name of a document URI: its base name.
func DocumentName(uri string) string {
	if strings.HasPrefix(uri, s3Scheme) {
		return path.Base(uri)
	}
	return filepath.Base(uri)
}

// Expand implements DocumentSource.
func (d *documentSource) Expand(ctx context.Context, location string) ([]string, error) {
	if strings.HasPrefix(location, s3Scheme) {
		return d.expandS3(ctx, location)
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", location, err)
	}
	if !info.IsDir() {
		return []string{location}, nil
	}

	entries, err := os.ReadDir(location)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %q: %w", location, err)
	}

	var uris []string
	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(entry.Name()) {
			continue
		}
		uris = append(uris, filepath.Join(location, entry.Name()))
	}
	sort.Strings(uris)
	return uris, nil
}

func (d *documentSource) expandS3(ctx context.Context, uri string) ([]string, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if key != "" && !strings.HasSuffix(key, "/") {
		return []string{uri}, nil
	}
	if d.s3Client == nil {
		return nil, ErrS3NotConfigured
	}

	paginator := s3.NewListObjectsV2Paginator(d.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(key),
	})

	var uris []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", bucket, key, err)
		}
		for _, obj := range page.Contents {
			objKey := aws.ToString(obj.Key)
			if IsSupported(objKey) {
				uris = append(uris, s3Scheme+bucket+"/"+objKey)
			}
		}
	}
	sort.Strings(uris)
	return uris, nil
}

// Fetch implements DocumentSource.
func (d *documentSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, s3Scheme) {
		data, err := os.ReadFile(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return data, nil
	}

	if d.s3Client == nil {
		return nil, ErrS3NotConfigured
	}
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	return retry(ctx, d.retry, func() ([]byte, error) {
		return downloadObject(ctx, d.s3Client, bucket, key)
	})
}

func downloadObject(ctx context.Context, client *s3.Client, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}
