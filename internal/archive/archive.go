// Package archive ships each solve's input snapshot and result to
// Cloudflare R2-compatible object storage, so a solve can be replayed or
// audited after the local database has moved on. It wraps the AWS S3 SDK
// with a custom endpoint resolver pointing at R2's API, since R2 speaks
// the S3 protocol.
package archive

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// Client wraps an S3-compatible client pointed at a Cloudflare R2 bucket.
type Client struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	log        zerolog.Logger
}

// Credentials bundles the fields needed to reach one R2 bucket.
type Credentials struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// NewClient builds a Client configured for Cloudflare's R2 endpoint. It
// returns an error (rather than a no-op client) when any credential is
// missing, so callers can decide whether archival is optional for their
// deployment.
func NewClient(creds Credentials, log zerolog.Logger) (*Client, error) {
	if creds.AccountID == "" || creds.AccessKeyID == "" || creds.SecretAccessKey == "" || creds.Bucket == "" {
		return nil, fmt.Errorf("archive credentials incomplete")
	}

	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               fmt.Sprintf("https://%s.r2.cloudflarestorage.com", creds.AccountID),
			HostnameImmutable: true,
			SigningRegion:     "auto",
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 5
	})
	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.PartSize = 10 * 1024 * 1024
		d.Concurrency = 5
	})

	return &Client{
		client:     client,
		uploader:   uploader,
		downloader: downloader,
		bucket:     creds.Bucket,
		log:        log.With().Str("component", "archive_client").Logger(),
	}, nil
}

// SnapshotKey returns the object key a solve started at runAt should archive
// its input snapshot under.
func SnapshotKey(runAt time.Time) string {
	return fmt.Sprintf("snapshots/%s.msgpack", runAt.UTC().Format("2006-01-02T15-04-05"))
}

// ResultKey returns the object key a solve started at runAt should archive
// its result under.
func ResultKey(runAt time.Time) string {
	return fmt.Sprintf("results/%s.msgpack", runAt.UTC().Format("2006-01-02T15-04-05"))
}

// Put uploads a msgpack-encoded blob under key.
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	c.log.Info().Str("key", key).Int("size", len(data)).Msg("archiving blob")

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          newByteReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}
	return nil
}

// Get downloads the blob at key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	buf := newWriteAtBuffer()
	n, err := c.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}

	c.log.Info().Str("key", key).Int64("bytes", n).Msg("fetched archived blob")
	return buf.Bytes(), nil
}

// List returns every object archived under prefix (e.g. "snapshots/").
func (c *Client) List(ctx context.Context, prefix string) ([]types.Object, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	var objects []types.Object
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list archived objects: %w", err)
		}
		objects = append(objects, page.Contents...)
	}
	return objects, nil
}

// Delete removes the object at key, used by retention cleanup.
func (c *Client) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// TestConnection verifies the bucket is reachable with the configured
// credentials, for a startup health check.
func (c *Client) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("archive connection test failed: %w", err)
	}
	return nil
}

type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// writeAtBuffer is a minimal io.WriterAt sink for manager.Downloader, which
// writes parts out of order when downloading concurrently.
type writeAtBuffer struct {
	buf []byte
}

func newWriteAtBuffer() *writeAtBuffer {
	return &writeAtBuffer{}
}

func (w *writeAtBuffer) WriteAt(p []byte, off int64) (int, error) {
	end := int(off) + len(p)
	if end > len(w.buf) {
		grown := make([]byte, end)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[off:], p)
	return len(p), nil
}

func (w *writeAtBuffer) Bytes() []byte {
	return w.buf
}
