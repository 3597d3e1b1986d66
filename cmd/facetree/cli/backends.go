package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/facetree"
	"github.com/hupe1980/facetree/blobstore"
	miniostore "github.com/hupe1980/facetree/blobstore/minio"
	s3store "github.com/hupe1980/facetree/blobstore/s3"
	"github.com/hupe1980/facetree/codec"
	"github.com/hupe1980/facetree/dataset"
	"github.com/hupe1980/facetree/permission/dynamo"
)

// openBlobStore builds the persistent cache tier. It returns nil when the
// backend is none.
func openBlobStore(ctx context.Context, c BlobConfig) (blobstore.Store, error) {
	switch c.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "local":
		return blobstore.NewLocalStore(c.Path), nil
	case "s3":
		cfg, err := loadAWSConfig(ctx, c.Region)
		if err != nil {
			return nil, err
		}
		client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
			if c.Endpoint != "" {
				o.BaseEndpoint = aws.String(c.Endpoint)
				o.UsePathStyle = true
			}
		})
		return s3store.NewStore(client, c.Bucket, c.Prefix), nil
	case "minio":
		access, secret := c.AccessKey, c.SecretKey
		if access == "" {
			access = os.Getenv("MINIO_ACCESS_KEY")
		}
		if secret == "" {
			secret = os.Getenv("MINIO_SECRET_KEY")
		}
		client, err := minio.New(c.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(access, secret, ""),
			Secure: c.UseSSL,
			Region: c.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, c.Bucket, c.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.Backend)
	}
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if region != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// engineOptions translates the config into engine options.
func engineOptions(ctx context.Context, cfg Config, logger *facetree.Logger, mc facetree.MetricsCollector) ([]facetree.Option, error) {
	opts := []facetree.Option{
		facetree.WithLogger(logger),
		facetree.WithCacheSize(cfg.Cache.Size),
		facetree.WithConcurrency(cfg.Engine.Concurrency),
		facetree.WithRateLimit(cfg.Engine.RateLimit),
		facetree.WithMetricsCollector(mc),
	}
	if c, ok := codec.ByName(cfg.Cache.Codec); ok {
		opts = append(opts, facetree.WithCodec(c))
	}

	store, err := openBlobStore(ctx, cfg.Blob)
	if err != nil {
		return nil, err
	}
	if store != nil {
		compression, err := codec.ParseCompression(cfg.Blob.Compression)
		if err != nil {
			return nil, err
		}
		opts = append(opts, facetree.WithBlobStore(store, compression))
	}
	return opts, nil
}

// openEngine builds an engine over repo. Non-public record ids come from
// DynamoDB when configured, from repo otherwise.
func openEngine(ctx context.Context, cfg Config, repo *dataset.Repository, logger *facetree.Logger, mc facetree.MetricsCollector) (*facetree.Engine, error) {
	opts, err := engineOptions(ctx, cfg, logger, mc)
	if err != nil {
		return nil, err
	}

	if cfg.Permissions.Backend != "dynamodb" {
		return facetree.New(repo, opts...)
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.Permissions.Region)
	if err != nil {
		return nil, err
	}
	oracle := dynamo.NewOracle(dynamodb.NewFromConfig(awsCfg), cfg.Permissions.Table)
	return facetree.NewWithPorts(facetree.Ports{
		Schema:  repo,
		Records: repo,
		Oracle:  oracle,
		Matcher: repo,
	}, opts...)
}
