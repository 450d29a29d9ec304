package common

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// ErrObjectExists is returned by PutIfAbsent when the key is taken.
var ErrObjectExists = errors.New("object already exists")

// S3Config contains minimal configuration for creating an S3 client.
// Values are optional and will fall back to the standard AWS config/credential chain.
type S3Config struct {
	// Region to use for requests, e.g. "eu-west-1". If empty, AWS defaults apply.
	Region string
	// Profile selects a named shared config/credentials profile.
	Profile string
	// Endpoint overrides the service endpoint for S3-compatible providers.
	Endpoint string
	// UsePathStyle forces path-style addressing (useful for some S3-compatible providers).
	UsePathStyle bool
}

// S3 wraps the AWS SDK for Go v2 S3 client with a narrow interface.
type S3 struct {
	client *s3.Client
}

// NewS3 creates a new S3 wrapper using the default AWS configuration chain,
// with optional overrides from S3Config.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3{client: c}, nil
}

// PutIfAbsent writes a JSON object only if the key does not exist yet.
// A conditional-write conflict is reported as ErrObjectExists.
func (s *S3) PutIfAbsent(ctx context.Context, bucket, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err == nil {
		return nil
	}
	if statusCode(err) == 412 || errorCode(err) == "PreconditionFailed" {
		return ErrObjectExists
	}
	return err
}

// GetBytes reads a whole object.
func (s *S3) GetBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// BucketReachable checks that the bucket exists and is accessible.
func (s *S3) BucketReachable(ctx context.Context, bucket string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	return err
}

// IsNotFound matches HTTP 404 responses and NotFound/NoSuchKey API errors.
func IsNotFound(err error) bool {
	if statusCode(err) == 404 {
		return true
	}
	switch errorCode(err) {
	case "NotFound", "NoSuchKey":
		return true
	}
	return false
}

func statusCode(err error) int {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
