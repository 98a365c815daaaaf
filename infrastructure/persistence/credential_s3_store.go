package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/configuration"
)

// S3API is the part of the S3 client the credential store needs.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3CredentialStore keeps credential files in a bucket under a key prefix.
type S3CredentialStore struct {
	client S3API
	bucket string
	prefix string
	codec  CredentialCodec
}

// NewS3Client builds a client from the default AWS chain. Static keys and a
// custom endpoint are used for S3-compatible stores such as MinIO or R2.
func NewS3Client(ctx context.Context, cfg configuration.S3) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = !strings.Contains(cfg.Endpoint, "amazonaws.com")
		}
	}), nil
}

func NewS3CredentialStore(client S3API, bucket, prefix string, codec CredentialCodec) repository.ICredentialStore {
	return &S3CredentialStore{client: client, bucket: bucket, prefix: prefix, codec: codec}
}

func (s *S3CredentialStore) key(userID, platform string) string {
	return s.prefix + credentialFileName(platform, userID)
}

func (s *S3CredentialStore) Save(ctx context.Context, userID string, creds model.PlatformCredentials) error {
	payload, err := s.codec.Encode(creds)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(userID, creds.Platform())),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put credentials: %w", err)
	}
	return nil
}

func (s *S3CredentialStore) Load(ctx context.Context, userID, platform string) (model.PlatformCredentials, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(userID, platform)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	defer out.Body.Close()
	payload, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	return s.codec.Decode(payload)
}

func (s *S3CredentialStore) Delete(ctx context.Context, userID, platform string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(userID, platform)),
	})
	return err
}

func (s *S3CredentialStore) Platforms(ctx context.Context, userID string) ([]string, error) {
	out := []string{}
	for _, p := range model.SupportedPlatforms {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(userID, p)),
		})
		if err == nil {
			out = append(out, p)
			continue
		}
		var nf *types.NotFound
		if !errors.As(err, &nf) {
			return nil, err
		}
	}
	return out, nil
}
