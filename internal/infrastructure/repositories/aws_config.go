package repositories

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// AWSConfigLoader returns the process-wide AWS configuration, loading it on
// first use so that local backends never touch AWS.
type AWSConfigLoader func() (aws.Config, error)

// NewAWSConfigLoader loads the default credential chain once.
func NewAWSConfigLoader() AWSConfigLoader {
	return sync.OnceValues(func() (aws.Config, error) {
		return config.LoadDefaultConfig(context.Background())
	})
}
