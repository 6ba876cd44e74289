package avatars

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/dosekeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = Config{
	Region:    "us-east-1",
	AccessKey: "minioadmin",
	SecretKey: "minioadmin",
	Endpoint:  "http://127.0.0.1:9000",
	Bucket:    "dosekeeper",
}

func stubAWS(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		require.NotNil(t, opts.BaseEndpoint)
		assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
		assert.True(t, opts.UsePathStyle)
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func TestUpload_Success(t *testing.T) {
	stubAWS(t)

	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var gotKey string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "dosekeeper", *in.Bucket)
		assert.Equal(t, "image/png", *in.ContentType)
		gotKey = *in.Key
		return &v4.PresignedHTTPRequest{URL: srv.URL + "/upload", Method: http.MethodPut}, nil
	}

	u := New(testCfg, srv.Client(), logging.Nop())
	url, err := u.Upload(context.Background(), "u1", []byte("png-bytes"), "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotKey, "avatars/u1/"))
	assert.Equal(t, "http://127.0.0.1:9000/dosekeeper/"+gotKey, url)
	assert.Equal(t, "png-bytes", gotBody)
	assert.Equal(t, "image/png", gotType)
}

func TestUpload_PresignError(t *testing.T) {
	stubAWS(t)
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	}

	_, err := New(testCfg, nil, logging.Nop()).Upload(context.Background(), "u1", nil, "image/png")
	require.ErrorContains(t, err, "presign-fail")
}

func TestUpload_LoadConfigError(t *testing.T) {
	stubAWS(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := New(testCfg, nil, logging.Nop()).Upload(context.Background(), "u1", nil, "image/png")
	require.ErrorContains(t, err, "load-fail")
}

func TestUpload_StorageRejects(t *testing.T) {
	stubAWS(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: srv.URL}, nil
	}

	_, err := New(testCfg, srv.Client(), logging.Nop()).Upload(context.Background(), "u1", []byte("x"), "image/png")
	require.Error(t, err)
}

func TestUpload_NotConfigured(t *testing.T) {
	u := New(Config{}, nil, logging.Nop())
	assert.False(t, u.Enabled())
	_, err := u.Upload(context.Background(), "u1", nil, "")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestObjectURL_PublicBase(t *testing.T) {
	u := New(Config{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}, nil, logging.Nop())
	assert.Equal(t, "https://cdn.example.com/avatars/u1/x", u.ObjectURL("avatars/u1/x"))
}
