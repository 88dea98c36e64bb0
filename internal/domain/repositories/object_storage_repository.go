package repositories

import "context"

// ObjectStorageRepository stores the requirements files handed to the scan
// job.
type ObjectStorageRepository interface {
	// Put writes content under key and returns a location string for logs
	// (e.g. "s3://bucket/key" or a filesystem path).
	Put(ctx context.Context, key string, content []byte) (string, error)
}
