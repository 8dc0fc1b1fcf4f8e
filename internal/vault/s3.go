package vault

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/vcs"
)

// S3Vault stores content blobs as objects in an S3 bucket, keyed by
// checksum under an optional prefix. Credentials come from the default AWS
// provider chain (environment, shared config, instance role).
type S3Vault struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Vault creates a vault backed by the given bucket and region.
// An empty access key pair falls back to the default credential chain.
func NewS3Vault(bucket, prefix, region, accessKey, secretKey string) (*S3Vault, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 vault requires a bucket")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Vault{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}, nil
}

// objectKey maps a checksum to its object key under the configured prefix.
func (v *S3Vault) objectKey(checksum string) string {
	if v.prefix == "" {
		return checksum
	}
	return v.prefix + "/" + checksum
}

// PutContent stores content identified by its checksum. Object keys are
// content-addressed, so re-uploading a known checksum overwrites the same
// bytes and is safe.
func (v *S3Vault) PutContent(checksum string, r io.Reader, size int64) error {
	_, err := v.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.objectKey(checksum)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading %s to s3: %w", checksum, err)
	}
	return nil
}

// GetContent retrieves content by checksum.
func (v *S3Vault) GetContent(checksum string, w io.Writer) error {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.objectKey(checksum)),
	})
	if err != nil {
		return fmt.Errorf("fetching %s from s3: %w", checksum, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

// ValidateSetup verifies the bucket is reachable with the configured
// credentials.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not reachable: %w", v.bucket, err)
	}
	return nil
}

var _ vcs.Vault = (*S3Vault)(nil)
