package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

const contentType = "text/plain"

// API is the subset of the S3 client used here.
type API interface {
	PutObject(
		ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options),
	) (*awss3.PutObjectOutput, error)
}

// ObjectStorageRepository uploads requirements files to one bucket.
type ObjectStorageRepository struct {
	client API
	bucket string
}

// NewObjectStorageRepository wraps an S3 client bound to bucket.
func NewObjectStorageRepository(client API, bucket string) *ObjectStorageRepository {
	return &ObjectStorageRepository{client: client, bucket: bucket}
}

// NewFactory returns a registry factory that builds the client from the
// shared AWS configuration.
func NewFactory(
	loadConfig func() (aws.Config, error),
) func(*entities.Settings) (repositories.ObjectStorageRepository, error) {
	return func(settings *entities.Settings) (repositories.ObjectStorageRepository, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return NewObjectStorageRepository(awss3.NewFromConfig(cfg), settings.Bucket), nil
	}
}

// Put uploads content and returns its s3:// URL.
func (it *ObjectStorageRepository) Put(ctx context.Context, key string, content []byte) (string, error) {
	//nolint:exhaustruct // default object settings
	_, err := it.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(it.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", it.bucket, key), nil
}
