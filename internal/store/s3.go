package store

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"snapsync/internal/snap"
)

// S3Store is the S3 implementation of the ObjectStore interface.
// Uploads go through the SDK's upload manager so large video files are
// multipart-uploaded without buffering in memory. The storage class given
// per Put selects the object's tier (e.g. STANDARD, DEEP_ARCHIVE).
type S3Store struct {
	bucket   string
	client   *s3.Client
	uploader *manager.Uploader
}

// S3Options configures S3 client construction.
type S3Options struct {
	Bucket  string
	Region  string
	Profile string // shared-config profile; empty uses the default chain
	// Static credentials, used only when both are set. Otherwise the SDK's
	// default resolution (env, shared config, IMDS) applies.
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Store creates an S3 store for the given bucket.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 store requires a bucket")
	}

	cfg, err := loadAWSConfig(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		bucket:   opts.Bucket,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func loadAWSConfig(ctx context.Context, opts S3Options) (aws.Config, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, loadOpts...)
}

// Put uploads the object under the given storage class.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, storageClass string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if storageClass != "" {
		input.StorageClass = types.StorageClass(storageClass)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// ValidateSetup verifies the bucket exists and the credentials can reach it.
func (s *S3Store) ValidateSetup(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", s.bucket, err)
	}
	return nil
}

// Compile-time check that S3Store implements snap.ObjectStore
var _ snap.ObjectStore = (*S3Store)(nil)
