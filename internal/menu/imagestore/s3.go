// Package imagestore issues presigned upload URLs for menu item images on S3-compatible storage.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// UploadURLTTL is how long a presigned upload URL stays valid.
const UploadURLTTL = 15 * time.Minute

// ErrNotConfigured is returned by New when no bucket is set.
var ErrNotConfigured = errors.New("imagestore: S3_BUCKET is not set")

// Options configures the S3 client. Empty AccessKey uses the default AWS credential chain.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Upload is a presigned PUT for one object.
type Upload struct {
	URL       string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type putPresigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store presigns uploads into a single bucket.
type S3Store struct {
	bucket  string
	presign putPresigner
	now     func() time.Time
}

// New builds an S3Store. A custom Endpoint (MinIO, LocalStack) switches to path-style addressing.
func New(ctx context.Context, opts Options) (*S3Store, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, ErrNotConfigured
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newWithPresigner(opts.Bucket, s3.NewPresignClient(client)), nil
}

func newWithPresigner(bucket string, p putPresigner) *S3Store {
	return &S3Store{bucket: bucket, presign: p, now: time.Now}
}

// ObjectKey returns a fresh key for an image of item itemID. ext is taken from filename when present.
func ObjectKey(itemID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
	default:
		ext = ""
	}
	return "menu/" + itemID + "/" + uuid.New().String() + ext
}

// PresignUpload returns a presigned PUT URL for key.
func (s *S3Store) PresignUpload(ctx context.Context, key, contentType string) (*Upload, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	req, err := s.presign.PresignPutObject(ctx, in, s3.WithPresignExpires(UploadURLTTL))
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", key, err)
	}
	return &Upload{URL: req.URL, Key: key, Method: req.Method, ExpiresAt: s.now().Add(UploadURLTTL).UTC()}, nil
}
