// Package avatars uploads profile pictures to S3-compatible object storage
// through presigned PUT URLs.
package avatars

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/logging"
	"github.com/dmitrijs2005/dosekeeper/internal/netx"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// ErrNotConfigured is returned when no bucket is set.
var ErrNotConfigured = errors.New("avatar storage is not configured")

const presignTTL = 15 * time.Minute

type Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	Bucket    string
	// PublicBaseURL, when set, prefixes object keys in returned URLs
	// instead of Endpoint/Bucket.
	PublicBaseURL string
}

type Uploader struct {
	cfg  Config
	http netx.HTTPClient
	log  logging.Logger
}

// New builds an uploader. A nil httpClient means http.DefaultClient.
func New(cfg Config, httpClient netx.HTTPClient, log logging.Logger) *Uploader {
	return &Uploader{cfg: cfg, http: httpClient, log: log.With("module", "avatars")}
}

func (u *Uploader) Enabled() bool {
	return u.cfg.Bucket != ""
}

// ObjectKey returns a fresh storage key for a user's avatar.
func ObjectKey(userID string) string {
	return fmt.Sprintf("avatars/%s/%v", userID, uuid.New())
}

func (u *Uploader) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(u.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.cfg.AccessKey,
			u.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if u.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(u.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// ObjectURL is the public address of key.
func (u *Uploader) ObjectURL(key string) string {
	base := u.cfg.PublicBaseURL
	if base == "" {
		base = strings.TrimSuffix(u.cfg.Endpoint, "/") + "/" + url.PathEscape(u.cfg.Bucket)
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}

// Upload stores data as the user's new avatar and returns its URL.
func (u *Uploader) Upload(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	if !u.Enabled() {
		return "", ErrNotConfigured
	}

	pc, err := u.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("presign client: %w", err)
	}

	bucket := u.cfg.Bucket
	key := ObjectKey(userID)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}

	if err := netx.UploadToPresignedURL(ctx, u.http, req.URL, data, contentType); err != nil {
		return "", err
	}
	u.log.Info(ctx, "avatar uploaded", "user_id", userID, "key", key, "bytes", len(data))
	return u.ObjectURL(key), nil
}
