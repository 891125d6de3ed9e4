package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/fatfs/blobstore"
	"github.com/hupe1980/fatfs/blobstore/minio"
	"github.com/hupe1980/fatfs/blobstore/s3"
)

// openStore builds the snapshot backend. It returns nil when snapshots are
// disabled.
func openStore(ctx context.Context, c SnapshotConfig) (blobstore.Store, error) {
	switch c.Backend {
	case "", "none":
		return nil, nil
	case "local":
		return blobstore.NewLocalStore(c.Dir), nil
	case "s3":
		var optFns []func(*config.LoadOptions) error
		if c.AWSRegion != "" {
			optFns = append(optFns, config.WithRegion(c.AWSRegion))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return s3.NewStore(awss3.NewFromConfig(awsCfg), c.Bucket, c.Prefix), nil
	case "minio":
		client, err := miniogo.New(c.Endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
			Secure: c.Secure,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO client: %w", err)
		}
		return minio.NewStore(client, c.Bucket, c.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", c.Backend)
	}
}
